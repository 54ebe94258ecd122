package schema

import (
	"github.com/roach88/schemaforge/internal/model"
	"github.com/roach88/schemaforge/internal/naming"
	"github.com/roach88/schemaforge/internal/scalar"
	"github.com/roach88/schemaforge/internal/visibility"
)

// Event is the kind of change a subscription field listens to.
type Event string

const (
	EventCreate Event = "CREATE"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
)

// SubscriptionTarget binds a root subscription field to the entity and event
// it observes.
type SubscriptionTarget struct {
	Field  string
	Entity string
	Event  Event
}

const typeEventType = "EventType"

func (c *BuildContext) eventType() string {
	return c.ensure(typeEventType, "shared:EventType", KindEnum, func(t *TypeDef) {
		t.Values = []string{string(EventCreate), string(EventUpdate), string(EventDelete)}
	})
}

// subscriptionWhere generates <E>SubscriptionWhere. It has no relationship
// slots and only admits read-selectable filterable scalar fields.
func (c *BuildContext) subscriptionWhere(e *model.Entity) string {
	return c.ensure(e.Name+"SubscriptionWhere", "subscriptionWhere:"+e.Name, KindInputObject, func(t *TypeDef) {
		c.logicalCombinators(t)
		c.scalarSlots(t, e.Fields, visibility.SubscriptionWhere)
	})
}

// eventPayload generates <E>EventPayload with the read-selectable scalar
// fields of e.
func (c *BuildContext) eventPayload(e *model.Entity) string {
	return c.ensure(e.Name+"EventPayload", "eventPayload:"+e.Name, KindObject, func(t *TypeDef) {
		for _, f := range e.Fields {
			if visibility.Include(f, visibility.EventPayload) {
				addScalarOutput(t, f)
			}
		}
	})
}

func (c *BuildContext) eventObject(e *model.Entity, suffix string, payload func(t *TypeDef, p string)) string {
	return c.ensure(e.Name+suffix, "event:"+e.Name+suffix, KindObject, func(t *TypeDef) {
		t.add("event", model.NonNullOf(c.eventType()))
		t.add("timestamp", model.NonNullOf(scalar.Float.String()))
		payload(t, c.eventPayload(e))
	})
}

// subscriptionFields adds the created/updated/deleted root fields of e and
// records their targets.
func (c *BuildContext) subscriptionFields(s *TypeDef, e *model.Entity, targets map[string]SubscriptionTarget) {
	where := c.subscriptionWhere(e)
	lower := naming.LowerFirst(e.Name)

	created := c.eventObject(e, "CreatedEvent", func(t *TypeDef, p string) {
		t.add("created"+e.Name, model.NonNullOf(p))
	})
	updated := c.eventObject(e, "UpdatedEvent", func(t *TypeDef, p string) {
		t.add("previousState", model.NonNullOf(p))
		t.add("updated"+e.Name, model.NonNullOf(p))
	})
	deleted := c.eventObject(e, "DeletedEvent", func(t *TypeDef, p string) {
		t.add("deleted"+e.Name, model.NonNullOf(p))
	})

	for _, sf := range []struct {
		name  string
		typ   string
		event Event
	}{
		{lower + "Created", created, EventCreate},
		{lower + "Updated", updated, EventUpdate},
		{lower + "Deleted", deleted, EventDelete},
	} {
		s.add(sf.name, model.NonNullOf(sf.typ)).arg("where", model.Named(where))
		targets[sf.name] = SubscriptionTarget{Field: sf.name, Entity: e.Name, Event: sf.event}
	}
}
