package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/events"
	"github.com/OldStager01/fleet-value-engine/pkg/config"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

// Manager exposes the engine to the API layer: named-model run
// triggering plus event subscription for the WebSocket bridge.
type Manager struct {
	engine *Engine
	bus    *events.EventBus
	config *config.Config
}

func NewManager(e *Engine, bus *events.EventBus, cfg *config.Config) *Manager {
	return &Manager{engine: e, bus: bus, config: cfg}
}

func (m *Manager) TriggerRun(ctx context.Context, modelName string, windowStart, windowEnd time.Time) (*models.RunReport, error) {
	for _, mc := range m.config.Models {
		if mc.Name == modelName {
			return m.engine.Run(ctx, mc, windowStart, windowEnd)
		}
	}
	return nil, fmt.Errorf("model %q not configured", modelName)
}

func (m *Manager) SubscribeAllEvents() <-chan *models.Event {
	return m.bus.SubscribeAll()
}
