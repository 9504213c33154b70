package notifications

import (
	"context"
	"sync"
)

type Observer func(ctx context.Context, event Event)

// Observers is an in-process registry of callbacks keyed by event name.
// No ordering is guaranteed between observers of the same event.
type Observers struct {
	observers map[EventName][]Observer
	mutex     sync.RWMutex
}

func NewObservers() *Observers {
	return &Observers{
		observers: make(map[EventName][]Observer),
	}
}

func (o *Observers) On(name EventName, observer Observer) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.observers[name] = append(o.observers[name], observer)
}

func (o *Observers) Emit(ctx context.Context, event Event) {
	o.mutex.RLock()
	observers := o.observers[event.Name]
	o.mutex.RUnlock()
	for _, observer := range observers {
		observer(ctx, event)
	}
}

type multiService []NotificationService

func (ms multiService) Emit(ctx context.Context, event Event) {
	for _, service := range ms {
		service.Emit(ctx, event)
	}
}

// Multi fans every event out to each of the services.
func Multi(services ...NotificationService) NotificationService {
	return multiService(services)
}
