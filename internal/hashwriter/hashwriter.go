// Package hashwriter provides an io.Writer that tees every write into a hash
// accumulator while forwarding it to an underlying sink.
package hashwriter

import (
	"encoding/hex"
	"errors"
	"io"

	"hashwriter/internal/hash"
)

// ErrFinalized is returned by every operation on a Writer after Finalize.
var ErrFinalized = errors.New("hashwriter: writer already finalized")

// Hasher is the incremental digest capability consumed by Writer. Any
// hash.Hash satisfies it.
type Hasher interface {
	// Write adds p to the running state. It never returns an error.
	Write(p []byte) (int, error)
	// Sum appends the current digest to b.
	Sum(b []byte) []byte
	// Size is the digest length in bytes.
	Size() int
}

// Sink is a byte destination that can be flushed.
type Sink interface {
	io.Writer
	Flush() error
}

// Policy selects which bytes of a write reach the hasher.
type Policy int

const (
	// HashAttempted feeds the whole input to the hasher before the sink sees
	// it, regardless of how much the sink accepts.
	HashAttempted Policy = iota
	// HashAccepted feeds only the prefix the sink reported as written.
	HashAccepted
)

func (p Policy) String() string {
	switch p {
	case HashAttempted:
		return "attempted"
	case HashAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// Option configures a Writer.
type Option func(*options)

type options struct {
	policy Policy
}

// WithPolicy sets the hashing policy. The default is HashAttempted.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// Digest is the finalized output of a Hasher.
type Digest []byte

// Hex returns the lowercase hex encoding of d.
func (d Digest) Hex() string { return hex.EncodeToString(d) }

func (d Digest) String() string { return d.Hex() }

// Writer forwards writes to a sink and accumulates their hash.
//
// A Writer is not safe for concurrent use.
type Writer[H Hasher, S Sink] struct {
	hasher    H
	sink      S
	policy    Policy
	hashed    int64
	finalized bool
}

// New creates a Writer owning hasher and sink. The hasher may be pre-seeded.
func New[H Hasher, S Sink](hasher H, sink S, opts ...Option) *Writer[H, S] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Writer[H, S]{hasher: hasher, sink: sink, policy: o.policy}
}

// FromFunc creates a Writer whose hasher comes from newHasher.
func FromFunc[H Hasher, S Sink](newHasher func() H, sink S, opts ...Option) *Writer[H, S] {
	return New(newHasher(), sink, opts...)
}

// FromSink creates a Writer hashing with the default algorithm.
func FromSink[S Sink](sink S, opts ...Option) *Writer[Hasher, S] {
	return New[Hasher](hash.MustNew(hash.Default), sink, opts...)
}

// Write hashes p and forwards it to the sink, returning the sink's result
// unchanged. Under HashAttempted the hash advances over all of p even when
// the sink accepts less or fails.
func (w *Writer[H, S]) Write(p []byte) (int, error) {
	if w.finalized {
		return 0, ErrFinalized
	}
	if w.policy == HashAttempted {
		w.update(p)
	}
	n, err := w.sink.Write(p)
	if w.policy == HashAccepted && n > 0 {
		// a sink reporting more than len(p) breaks the io.Writer contract
		w.update(p[:min(n, len(p))])
	}
	return n, err
}

func (w *Writer[H, S]) update(p []byte) {
	// hash.Hash.Write never returns an error.
	_, _ = w.hasher.Write(p)
	w.hashed += int64(len(p))
}

// Flush flushes the sink. The hash state is not affected.
func (w *Writer[H, S]) Flush() error {
	if w.finalized {
		return ErrFinalized
	}
	return w.sink.Flush()
}

// Hashed returns the number of bytes fed to the hasher so far.
func (w *Writer[H, S]) Hashed() int64 { return w.hashed }

// Policy returns the hashing policy of w.
func (w *Writer[H, S]) Policy() Policy { return w.policy }

// Finalize returns the digest of everything hashed and hands the sink back to
// the caller. The Writer is unusable afterwards; the caller owns closing the
// sink.
func (w *Writer[H, S]) Finalize() (Digest, S, error) {
	if w.finalized {
		var zero S
		return nil, zero, ErrFinalized
	}
	w.finalized = true
	sum := w.hasher.Sum(nil)
	sink := w.sink
	var zeroH H
	var zeroS S
	w.hasher, w.sink = zeroH, zeroS
	return Digest(sum), sink, nil
}
