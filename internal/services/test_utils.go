package services

import (
	"context"
	"sync"

	"wastereport/internal/models"
)

// RecordingPublisher is a NotificationPublisher that keeps every published notification in memory
type RecordingPublisher struct {
	mu        sync.Mutex
	published []models.Notification
	Err       error
}

// Publish records the notification and returns Err
func (p *RecordingPublisher) Publish(_ context.Context, notification models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, notification)
	return p.Err
}

// Close does nothing
func (p *RecordingPublisher) Close() error { return nil }

// Published returns a copy of the recorded notifications
func (p *RecordingPublisher) Published() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Notification(nil), p.published...)
}

// StubAIGateway returns canned results; unset results yield the configured error
type StubAIGateway struct {
	Waste        *models.WasteClassification
	DeadAnimal   *models.DeadAnimalClassification
	Verification *models.CleanupVerification
	Reply        string
	Err          error

	mu    sync.Mutex
	calls []string
}

var _ AIGateway = (*StubAIGateway)(nil)

func (g *StubAIGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

// Calls lists the capabilities invoked so far
func (g *StubAIGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// ClassifyWaste returns Waste or Err
func (g *StubAIGateway) ClassifyWaste(context.Context, string) (*models.WasteClassification, error) {
	g.record(capabilityClassifyWaste)
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Waste, nil
}

// ClassifyDeadAnimal returns DeadAnimal or Err
func (g *StubAIGateway) ClassifyDeadAnimal(context.Context, string) (*models.DeadAnimalClassification, error) {
	g.record(capabilityClassifyDeadAnimal)
	if g.Err != nil {
		return nil, g.Err
	}
	return g.DeadAnimal, nil
}

// VerifyCleanup returns Verification or Err
func (g *StubAIGateway) VerifyCleanup(context.Context, string, string) (*models.CleanupVerification, error) {
	g.record(capabilityVerifyCleanup)
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Verification, nil
}

// Converse returns Reply or Err
func (g *StubAIGateway) Converse(context.Context, string, []models.ChatTurn) (string, error) {
	g.record(capabilityConverse)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}
