package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/tonallabs/tonal-core/internal/affect"
	"github.com/tonallabs/tonal-core/internal/bus"
	"github.com/tonallabs/tonal-core/internal/config"
	"github.com/tonallabs/tonal-core/internal/eventstore"
	"github.com/tonallabs/tonal-core/internal/listen"
	"github.com/tonallabs/tonal-core/internal/protocol"
	"github.com/tonallabs/tonal-core/internal/punct"
)

// Service routes session control and file requests from the bus to
// controllers. Each session owns an independent controller and transcript
// buffer; the classifier, restorer, and source are process-wide stateless
// resources shared by all sessions.
type Service struct {
	cfg      config.Config
	bus      *bus.Client
	source   listen.Source
	restorer *punct.Restorer
	analyzer *affect.Analyzer
	store    *eventstore.Store
	sink     Sink
	metrics  *metrics
	logger   *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	subControl *nats.Subscription
	subFile    *nats.Subscription
	wg         sync.WaitGroup

	mu          sync.Mutex
	controllers map[string]*Controller
	batch       *Batch
}

func NewService(parent context.Context, cfg config.Config, busClient *bus.Client, source listen.Source,
	restorer *punct.Restorer, analyzer *affect.Analyzer, store *eventstore.Store, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	log := logger.With(slog.String("component", "session-service"))
	sink := NewBusSink(busClient, logger)
	return &Service{
		cfg:         cfg,
		bus:         busClient,
		source:      source,
		restorer:    restorer,
		analyzer:    analyzer,
		store:       store,
		sink:        sink,
		metrics:     newMetrics(log),
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
		controllers: make(map[string]*Controller),
		batch:       NewBatch(cfg, source, restorer, analyzer, sink, logger),
	}
}

func (s *Service) Start() error {
	subControl, err := s.bus.Conn().Subscribe(protocol.SubjectSessionControl, s.handleControl)
	if err != nil {
		return fmt.Errorf("subscribe session control: %w", err)
	}
	s.subControl = subControl

	subFile, err := s.bus.Conn().Subscribe(protocol.SubjectFileRequest, s.handleFile)
	if err != nil {
		s.subControl.Drain()
		return fmt.Errorf("subscribe file requests: %w", err)
	}
	s.subFile = subFile
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.subControl != nil {
		_ = s.subControl.Drain()
	}
	if s.subFile != nil {
		_ = s.subFile.Drain()
	}

	s.mu.Lock()
	controllers := make([]*Controller, 0, len(s.controllers))
	for _, c := range s.controllers {
		controllers = append(controllers, c)
	}
	s.mu.Unlock()
	for _, c := range controllers {
		c.Stop()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return s.subControl != nil && s.subFile != nil
}

func (s *Service) controller(id string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.controllers[id]
	if c == nil {
		c = NewController(id, s.cfg, s.source, s.restorer, s.analyzer, s.sink, s.store, s.metrics, s.logger)
		s.controllers[id] = c
	}
	return c
}

func (s *Service) handleControl(msg *nats.Msg) {
	var ctrl protocol.SessionControl
	if err := json.Unmarshal(msg.Data, &ctrl); err != nil {
		s.logger.Warn("failed to decode session control", slogError(err))
		return
	}

	switch ctrl.Action {
	case protocol.ActionStart:
		if ctrl.SessionID == "" {
			ctrl.SessionID = uuid.NewString()
			s.logger.Info("assigned session id", slog.String("session_id", ctrl.SessionID))
		}
		if s.store != nil {
			if err := s.store.StartSession(s.ctx, ctrl.SessionID); err != nil {
				s.logger.Warn("failed to record session start", slogError(err))
			}
		}
		s.controller(ctrl.SessionID).Start(s.ctx)
	case protocol.ActionStop:
		if ctrl.SessionID == "" {
			s.logger.Warn("stop without session id ignored")
			return
		}
		s.mu.Lock()
		c := s.controllers[ctrl.SessionID]
		s.mu.Unlock()
		if c != nil {
			// Stop blocks until the loop observes the cancellation; keep
			// the subscription callback responsive.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				c.Stop()
			}()
		}
	default:
		s.logger.Warn("unknown session action", slog.String("action", ctrl.Action))
	}
}

func (s *Service) handleFile(msg *nats.Msg) {
	var req protocol.FileRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode file request", slogError(err))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Path == "" {
		s.sink.Notice(req.SessionID, "error", "file request without a path")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.batch.ProcessFile(s.ctx, req.SessionID, req.Path)
	}()
}
