package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Poller runs the long-poll update loop as a lifecycle component.
type Poller struct {
	s         Service
	processor *UpdateProcessor
	cancel    context.CancelFunc
	group     *errgroup.Group
}

func NewPoller(s Service, processor *UpdateProcessor) *Poller {
	return &Poller{
		s:         s,
		processor: processor,
	}
}

func (p *Poller) Start(ctx context.Context) error {
	pollCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = 60

	group, groupCtx := errgroup.WithContext(pollCtx)
	updateChan, errorChan := GetUpdatesChans(groupCtx, p.s.GetBot(), updateConfig)

	group.Go(func() error {
		for {
			select {
			case err := <-errorChan:
				return err
			case update, ok := <-updateChan:
				if !ok {
					return nil
				}
				if err := p.processor.Process(groupCtx, &update); err != nil {
					log.WithError(err).Errorln("cant process update")
				}
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
	})
	p.group = group
	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.group == nil {
		return nil
	}
	if err := p.group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
