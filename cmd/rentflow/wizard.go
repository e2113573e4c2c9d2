package main

import (
	"context"
	"errors"
	"fmt"

	rentflow "github.com/goliatone/go-rentflow"
	"github.com/goliatone/go-rentflow/internal/config"
	"github.com/goliatone/go-rentflow/pkg/client"
	"github.com/goliatone/go-rentflow/pkg/prompt"
	"github.com/goliatone/go-rentflow/pkg/submission"
	"github.com/goliatone/go-rentflow/pkg/wizard"
)

// runWizard drives def on the terminal until it submits, is cancelled, or
// the session is rejected mid-flow.
func (a *app) runWizard(ctx context.Context, def *rentflow.Definition, store *wizard.Store) (wizard.Outcome, error) {
	notifier := prompt.NewNotifier(nil, a.styles)
	opts := []submission.Option{
		submission.WithNotifier(notifier),
		submission.WithNavigator(notifier, def.Flow.Route),
	}
	if def.Mode == submission.UploadThenCreate {
		uploader, err := a.cfg.Uploader(a.logger)
		if err != nil {
			if errors.Is(err, config.ErrNoUploader) {
				return wizard.Outcome{}, fmt.Errorf("%s needs document storage: set RENTFLOW_STORAGE_URL or pass -upload-dir", def.Flow.Name)
			}
			return wizard.Outcome{}, err
		}
		opts = append(opts, submission.WithUploader(uploader, a.owner))
	}

	w, err := rentflow.NewWizard(def, rentflow.WizardConfig{
		Client:     a.api,
		Store:      store,
		Logger:     a.logger,
		Submission: opts,
	})
	if err != nil {
		return wizard.Outcome{}, err
	}
	runner, err := prompt.NewRunner(w.Controller,
		prompt.WithStyles(a.styles),
		prompt.WithLogger(a.logger),
		prompt.WithSuggester("locations", a.locationSuggester()),
	)
	if err != nil {
		return wizard.Outcome{}, err
	}

	// a rejected token ends the wizard; nothing collected so far is kept
	unsubscribe := a.session.Subscribe(func(evt client.Event) {
		if evt.Kind == client.EventInvalidated {
			w.Orchestrator.Close()
			runner.Abandon(client.ErrUnauthorized)
		}
	})
	defer unsubscribe()
	defer w.Orchestrator.Close()

	outcome, err := runner.Run(ctx)
	if err != nil {
		return outcome, err
	}
	if route := notifier.Route(); route != "" {
		a.logger.Debug("rentflow: navigate", "route", route)
	}
	return outcome, nil
}

func (a *app) owner() string {
	if u := a.session.User(); u != nil {
		return u.ID
	}
	return ""
}

func (a *app) newStore() *wizard.Store {
	return wizard.NewStore(wizard.WithStager(a.cfg.Stager()))
}

func (a *app) seed(store *wizard.Store) {
	if u := a.session.User(); u != nil {
		store.Seed(wizard.Profile{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Phone: u.Phone})
	}
}
