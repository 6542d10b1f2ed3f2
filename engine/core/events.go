package core

import "sync"

// EventContext carries a small fixed payload with every fired event.
type EventContext struct {
	// Time is the playback or wall time the event refers to, in seconds.
	Time float64
	// Name identifies the subject of the event (clip name, asset path).
	Name string
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Non-looping playback reached the end of the clip.
	// Context usage: Time = clip duration, Name = clip name.
	EVENT_CODE_PLAYBACK_FINISHED SystemEventCode = 0x01

	// A watched asset file was created or modified on disk.
	// Context usage: Name = asset path.
	EVENT_CODE_ASSET_MODIFIED SystemEventCode = 0x02

	// A weight computation completed.
	// Context usage: Time = wall seconds spent, Name = mesh name.
	EVENT_CODE_WEIGHTS_COMPUTED SystemEventCode = 0x03

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

const maxMessageCodes = 1024

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystemState struct {
	mutex      sync.RWMutex
	registered [maxMessageCodes][]*registeredEvent
}

var onceEvent sync.Once
var eventState *eventSystemState

func EventInitialize() {
	onceEvent.Do(func() {
		eventState = &eventSystemState{}
	})
}

func EventShutdown() {
	if eventState == nil {
		return
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()
	for i := range eventState.registered {
		eventState.registered[i] = nil
	}
}

// EventRegister registers a listener for the given code. Duplicate
// listener registrations for the same code are rejected.
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if eventState == nil {
		return false
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()

	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// EventUnregister removes a listener for the given code. Returns false if
// no matching registration is found.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	if eventState == nil {
		return false
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()

	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// EventFire notifies listeners of the given code in registration order. A
// handler returning true consumes the event and stops propagation.
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if eventState == nil {
		return false
	}
	eventState.mutex.RLock()
	events := make([]*registeredEvent, len(eventState.registered[code]))
	copy(events, eventState.registered[code])
	eventState.mutex.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}
