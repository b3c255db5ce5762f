package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"docveil/services"
	"docveil/stores"
	"docveil/utils"
)

// TrashPurger permanently removes trashed resources whose retention window has
// expired. Purging goes through the same cascade path as a user-initiated
// permanent delete, so subtree cleanup stays in one place.
type TrashPurger struct {
	resources stores.ResourceStore
	paths     *services.PathService
	retention time.Duration
	cron      *cron.Cron
}

func NewTrashPurger(resources stores.ResourceStore, paths *services.PathService, retentionDays int) *TrashPurger {
	return &TrashPurger{
		resources: resources,
		paths:     paths,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
	}
}

// Start schedules the purge on the given cron spec and runs one pass
// immediately. It returns after scheduling; the cron runs on its own
// goroutine.
func (p *TrashPurger) Start(spec string) error {
	if _, err := p.cron.AddFunc(spec, p.runOnce); err != nil {
		return err
	}
	p.cron.Start()
	utils.Log.WithField("schedule", spec).Info("Trash purger started")

	go p.runOnce()
	return nil
}

func (p *TrashPurger) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

func (p *TrashPurger) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-p.retention)
	expired, err := p.resources.ListExpiredTrash(ctx, cutoff)
	if err != nil {
		utils.Log.WithError(err).Error("Trash purge: listing expired resources failed")
		return
	}
	if len(expired) == 0 {
		utils.Log.Debug("Trash purge: nothing expired")
		return
	}

	var purged, failed int
	for _, res := range expired {
		err := p.paths.PermanentDelete(ctx, res.Kind, res.ID, true)
		switch {
		case err == nil:
			purged++
			utils.Log.WithFields(logrus.Fields{
				"kind": res.Kind,
				"id":   res.ID.Hex(),
				"name": res.Name,
			}).Info("Trash purge: permanently deleted resource")
		case errors.Is(err, services.ErrNotFound):
			// Already removed by an earlier cascade in this pass (a purged
			// ancestor takes its subtree with it).
		default:
			failed++
			utils.Log.WithError(err).WithFields(logrus.Fields{
				"kind": res.Kind,
				"id":   res.ID.Hex(),
			}).Error("Trash purge: delete failed")
		}
	}

	utils.Log.WithFields(logrus.Fields{
		"purged": purged,
		"failed": failed,
	}).Info("Trash purge completed")
}
