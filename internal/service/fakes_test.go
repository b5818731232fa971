package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/model"
)

type memoryStore struct {
	mu       sync.Mutex
	prefs    []*model.Preference
	credits  []*model.Credit
	profiles []*model.Profile
	logs     []*model.NotificationLog

	prefsErr    error
	creditsErr  error
	profilesErr error
	logsErr     error
	createErr   error

	creditQueries  [][]string
	profileQueries [][]string
	logsSince      time.Time
}

func (s *memoryStore) ListAlertPreferences(ctx context.Context) ([]*model.Preference, error) {
	if s.prefsErr != nil {
		return nil, s.prefsErr
	}
	var out []*model.Preference
	for _, p := range s.prefs {
		if p.UsageAlerts && p.EmailNotifications {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) ListCreditsByUserIDs(ctx context.Context, userIDs []string) ([]*model.Credit, error) {
	s.creditQueries = append(s.creditQueries, userIDs)
	if s.creditsErr != nil {
		return nil, s.creditsErr
	}
	var out []*model.Credit
	for _, c := range s.credits {
		if slices.Contains(userIDs, c.UserID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memoryStore) ListProfilesByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	s.profileQueries = append(s.profileQueries, ids)
	if s.profilesErr != nil {
		return nil, s.profilesErr
	}
	var out []*model.Profile
	for _, p := range s.profiles {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) ListNotificationsSince(ctx context.Context, typ model.NotificationType, userIDs []string, since time.Time) ([]*model.NotificationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logsSince = since
	if s.logsErr != nil {
		return nil, s.logsErr
	}
	var out []*model.NotificationLog
	for _, l := range s.logs {
		if l.Type == typ && slices.Contains(userIDs, l.UserID) && !l.CreatedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memoryStore) CreateNotificationLog(ctx context.Context, entry *model.NotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memoryStore) logsFor(userID string) []*model.NotificationLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.NotificationLog
	for _, l := range s.logs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	requests []*email.Request
	failFor  map[string]error
	// afterSend runs once the request is recorded, before Send returns.
	afterSend func()
}

func (n *recordingNotifier) Send(ctx context.Context, req *email.Request) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.requests = append(n.requests, req)
	if n.afterSend != nil {
		n.afterSend()
	}
	if err, ok := n.failFor[req.To]; ok {
		return "", err
	}
	return "msg-" + req.To, nil
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.requests))
	for i, r := range n.requests {
		out[i] = r.To
	}
	return out
}

type memoryLocker struct {
	mu         sync.Mutex
	holders    map[string]string
	acquireErr error
	released   []string
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{holders: make(map[string]string)}
}

func (l *memoryLocker) AcquireLease(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if _, held := l.holders[name]; held {
		return false, nil
	}
	l.holders[name] = token
	return true, nil
}

func (l *memoryLocker) ReleaseLease(ctx context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holders[name] != token {
		return errors.New("lease not held")
	}
	delete(l.holders, name)
	l.released = append(l.released, name)
	return nil
}

type fakeProvider struct {
	calls []*email.Envelope
	err   error
}

func (p *fakeProvider) Send(ctx context.Context, env *email.Envelope) (string, error) {
	p.calls = append(p.calls, env)
	if p.err != nil {
		return "", p.err
	}
	return "re_123", nil
}
