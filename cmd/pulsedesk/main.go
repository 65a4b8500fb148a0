package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vedran77/pulsedesk/internal/account"
	"github.com/vedran77/pulsedesk/internal/adapter/pulse"
	"github.com/vedran77/pulsedesk/internal/config"
	"github.com/vedran77/pulsedesk/internal/logging"
	"github.com/vedran77/pulsedesk/internal/store"
)

// accountEvent pairs a server event with the account it belongs to, so a
// single goroutine can own every account while adapters read concurrently.
type accountEvent struct {
	account *account.Account
	event   pulse.Event
}

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("loading config")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Component("main")

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		log.Fatal().Err(err).Msg("creating data dir")
	}
	st, err := store.Open(filepath.Join(cfg.DataDir, "pulsedesk.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("opening account store")
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := account.NewRegistry()
	reg.OnUpdateReadState.Subscribe(func(read bool) {
		log.Info().Bool("all_read", read).Msg("global read state")
	})
	reg.OnUpdateMentions.Subscribe(func(total int) {
		log.Info().Int("mentions", total).Msg("global mention count")
	})

	events := make(chan accountEvent, 64)
	g, ctx := errgroup.WithContext(ctx)

	var accounts []*account.Account
	for _, ws := range cfg.Workspaces {
		ad, err := pulse.New(ws.URL, ws.Token)
		if err != nil {
			log.Error().Err(err).Str("workspace", ws.ID).Msg("skipping workspace")
			continue
		}

		a := account.New(reg, ws.ID, ws.Name, ws.Icon, ws.URL)
		a.BindAdapter(ad)
		a.SetCurrentUser(ad.UserID(), "")
		if rec, err := st.GetAccount(ws.ID); err == nil && rec != nil {
			a.SetCurrentChannel(rec.CurrentChannelID)
		}
		accounts = append(accounts, a)

		if err := ad.Connect(ctx); err != nil {
			log.Error().Err(err).Str("workspace", ws.ID).Msg("connect failed")
			continue
		}

		// Forward this adapter's events into the shared loop.
		g.Go(func() error {
			for {
				select {
				case evt := <-ad.Events():
					select {
					case events <- accountEvent{account: a, event: evt}:
					case <-ctx.Done():
						return nil
					}
				case <-ad.Done():
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		})
	}

	// The event loop goroutine owns every account; all state mutation and
	// signal dispatch happens here.
	g.Go(func() error {
		for _, a := range accounts {
			if err := a.GetAllChannels(ctx); err != nil {
				log.Error().Err(err).Str("account_id", a.ID()).Msg("initial channel fetch failed")
			}
		}
		for {
			select {
			case ae := <-events:
				if err := pulse.Apply(ae.account, ae.event); err != nil {
					log.Warn().Err(err).Str("account_id", ae.account.ID()).Msg("event apply failed")
				}
			case <-ctx.Done():
				for _, a := range accounts {
					if err := st.SaveAccount(a.Serialize()); err != nil {
						log.Error().Err(err).Str("account_id", a.ID()).Msg("persisting account")
					}
					if err := a.Disconnect(context.Background()); err != nil {
						log.Warn().Err(err).Str("account_id", a.ID()).Msg("disconnect")
					}
					a.Close()
				}
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("event loop failed")
	}
}
