// Package subscription serves GraphQL subscriptions over a change feed.
//
// A Broker validates subscription documents against the generated schema,
// compiles their where argument once, and fans every published change event
// out to the matching subscriptions on a bounded worker pool. Events are
// dispatched one at a time, so each subscriber sees deliveries in publish
// order.
//
// Every dispatched event takes the next value of the broker's Clock and
// every Delivery carries it as Seq. Subscription ids come from an
// IDGenerator; tests inject a FixedGenerator and a Clock so deliveries are
// reproducible.
package subscription
