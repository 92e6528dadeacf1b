// Package content defines the records that move through review: generated
// content items and the audit reports produced for them.
//
// Items are created upstream by the generation pipeline in StatusPending and
// only ever leave that state through an acknowledged approve or reject on the
// backend. Nothing in this package mutates status; the types here are what
// the backend returned on the last fetch.
package content
