package events

import (
	"fmt"
	"sync"
)

// DiscrepancyCollector gathers LAL discrepancies as they are published so a
// report can list them after the run.
type DiscrepancyCollector struct {
	mu    sync.Mutex
	found []LalDiscrepancyDetected
}

func NewDiscrepancyCollector() *DiscrepancyCollector {
	return &DiscrepancyCollector{}
}

var _ EventHandler = (*DiscrepancyCollector)(nil)

func (c *DiscrepancyCollector) Handles(eventType string) bool {
	return eventType == LalDiscrepancyDetectedEvent
}

func (c *DiscrepancyCollector) Handle(event Event) error {
	d, ok := event.Payload().(LalDiscrepancyDetected)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload(), event.Type())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.found = append(c.found, d)
	return nil
}

// Discrepancies returns the collected discrepancies in publish order
func (c *DiscrepancyCollector) Discrepancies() []LalDiscrepancyDetected {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]LalDiscrepancyDetected(nil), c.found...)
}
