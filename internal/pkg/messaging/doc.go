// Package messaging provides a broker-agnostic API for publishing messages.
//
// The account service is publish-only: it emits audit events (challenge
// verified, password changed, email changed) for downstream consumers. The
// goal is to keep business code independent from the underlying messaging
// system (Kafka, NATS, NSQ, Google Pub/Sub); swapping brokers is a config
// change, not a code change.
package messaging
