package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

var (
	ErrNoRemoteDocument  = errors.New("no remote document for this identity")
	ErrRemoteUnavailable = errors.New("remote store not configured")
	ErrInvalidDirection  = errors.New("invalid sync direction")
)

const DefaultPushTimeout = 10 * time.Second

type pushJob struct {
	identity domain.Identity
	doc      domain.Document
}

// SyncService mirrors the local document to the bound identity's remote
// document. The remote copy is always replaced wholesale: remote wins when an
// identity is bound, local wins on every later save, and ForceSync lets the
// user pick a side explicitly.
type SyncService struct {
	repo        *Repository
	remote      port.DocumentStore
	log         *slog.Logger
	pushTimeout time.Duration

	mu       sync.Mutex
	identity domain.Identity
	closed   bool

	pushQueue chan pushJob
	done      chan struct{}
}

// NewSyncService registers the service as a save observer of repo and starts
// the push worker. remote may be nil, in which case the service never leaves
// the device.
func NewSyncService(log *slog.Logger, repo *Repository, remote port.DocumentStore, pushTimeout time.Duration) *SyncService {
	if pushTimeout <= 0 {
		pushTimeout = DefaultPushTimeout
	}

	s := &SyncService{
		repo:        repo,
		remote:      remote,
		log:         log.With("service", "sync"),
		pushTimeout: pushTimeout,
		pushQueue:   make(chan pushJob, 1),
		done:        make(chan struct{}),
	}
	repo.Observe(s)

	go s.pushLoop()
	return s
}

func (s *SyncService) Identity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, !s.identity.IsZero()
}

// Bind is called when sign-in completes. An existing remote document
// overwrites the local one; otherwise non-empty local data is pushed up as
// the first remote copy. The identity stays bound even if the remote call
// fails, and the error is returned for display. Binding the identity that is
// already bound does nothing; ForceSync retries a failed pull.
func (s *SyncService) Bind(ctx context.Context, identity domain.Identity) error {
	if identity.IsZero() {
		s.Unbind()
		return nil
	}

	s.mu.Lock()
	rebind := s.identity == identity
	s.identity = identity
	s.mu.Unlock()

	log := s.log.With(slog.String("identity", string(identity)))
	if rebind {
		// Local is already this identity's mirror and may have pushes in flight.
		log.Debug("identity already bound")
		return nil
	}
	log.Info("identity bound")

	if s.remote == nil {
		return nil
	}

	remoteDoc, err := s.remote.GetDocument(ctx, identity)
	if err != nil {
		log.Warn("pull on sign-in failed", slog.Any("error", err))
		return fmt.Errorf("pull remote document: %w", err)
	}

	if remoteDoc != nil {
		if err := s.repo.ReplaceFromRemote(ctx, *remoteDoc); err != nil {
			return fmt.Errorf("store remote document: %w", err)
		}
		log.Info("local document replaced from remote",
			slog.Int("items", len(remoteDoc.Items)),
			slog.Int("bundles", len(remoteDoc.Bundles)),
		)
		return nil
	}

	local := s.repo.Document(ctx)
	if local.IsEmpty() {
		return nil
	}
	if err := s.remote.PutDocument(ctx, identity, local); err != nil {
		log.Warn("initial push failed", slog.Any("error", err))
		return fmt.Errorf("push local document: %w", err)
	}
	log.Info("remote document created from local data")
	return nil
}

// Attach binds identity without the sign-in pull, for callers that resume an
// existing session and must not lose local data to the remote copy.
func (s *SyncService) Attach(identity domain.Identity) {
	if identity.IsZero() {
		s.Unbind()
		return
	}

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	s.log.Debug("identity attached", slog.String("identity", string(identity)))
}

// Unbind is called on sign-out. Pending pushes for the old identity are
// dropped when the worker reaches them.
func (s *SyncService) Unbind() {
	s.mu.Lock()
	old := s.identity
	s.identity = ""
	s.mu.Unlock()

	if !old.IsZero() {
		s.log.Info("identity unbound", slog.String("identity", string(old)))
	}
}

// DocumentSaved queues a background push of doc. Only the newest pending
// document is kept.
func (s *SyncService) DocumentSaved(doc domain.Document) {
	if s.remote == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.identity.IsZero() {
		return
	}

	job := pushJob{identity: s.identity, doc: doc}
	for {
		select {
		case s.pushQueue <- job:
			return
		default:
		}
		select {
		case <-s.pushQueue:
			s.log.Debug("pending push superseded")
		default:
		}
	}
}

// ForceSync overrides one side with the other. Up pushes local over remote;
// down pulls remote over local and fails with ErrNoRemoteDocument, leaving
// local untouched, if the identity has no remote copy yet.
func (s *SyncService) ForceSync(ctx context.Context, direction domain.SyncDirection) error {
	identity, ok := s.Identity()
	if !ok {
		return domain.ErrNotSignedIn
	}
	if s.remote == nil {
		return ErrRemoteUnavailable
	}

	switch direction {
	case domain.SyncUp:
		if err := s.remote.PutDocument(ctx, identity, s.repo.Document(ctx)); err != nil {
			return fmt.Errorf("push local document: %w", err)
		}
	case domain.SyncDown:
		remoteDoc, err := s.remote.GetDocument(ctx, identity)
		if err != nil {
			return fmt.Errorf("pull remote document: %w", err)
		}
		if remoteDoc == nil {
			return ErrNoRemoteDocument
		}
		if err := s.repo.ReplaceFromRemote(ctx, *remoteDoc); err != nil {
			return fmt.Errorf("store remote document: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	s.log.Info("forced sync", slog.String("identity", string(identity)), slog.String("direction", string(direction)))
	return nil
}

// Close stops accepting pushes, lets the worker finish the pending one and
// waits for it.
func (s *SyncService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.pushQueue)
	s.mu.Unlock()

	<-s.done
}

func (s *SyncService) pushLoop() {
	defer close(s.done)

	for job := range s.pushQueue {
		if current, _ := s.Identity(); current != job.identity {
			s.log.Debug("dropping push for unbound identity", slog.String("identity", string(job.identity)))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
		err := s.remote.PutDocument(ctx, job.identity, job.doc)
		cancel()

		if err != nil {
			s.log.Warn("background push failed",
				slog.String("identity", string(job.identity)),
				slog.Any("error", err),
			)
			continue
		}
		s.log.Debug("pushed document", slog.String("identity", string(job.identity)))
	}
}
