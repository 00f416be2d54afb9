package reactor

import (
	"fmt"
	"slices"
	"sync"

	"github.com/AnatoleLucet/reactor/internal"
)

// Ref is a single reactive value.
type Ref[T any] struct {
	mu    sync.RWMutex
	value T

	pub *internal.Publisher
}

func NewRef[T any](initial T) *Ref[T] {
	return &Ref[T]{
		value: initial,
		pub:   internal.NewPublisher("value"),
	}
}

// Get returns the current value and tracks the read.
func (r *Ref[T]) Get() T {
	r.pub.Depend()
	return r.Peek()
}

// Peek returns the current value without tracking it.
func (r *Ref[T]) Peek() T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.value
}

// Set replaces the value. Setting the same value again notifies no one.
func (r *Ref[T]) Set(v T) {
	r.mu.Lock()
	if internal.Unchanged(r.value, v) {
		r.mu.Unlock()
		return
	}
	r.value = v
	r.mu.Unlock()

	r.pub.Notify()
}

func (r *Ref[T]) Update(fn func(T) T) {
	r.Set(fn(r.Peek()))
}

// Trigger notifies the subscribers without changing the value,
// for values mutated in place.
func (r *Ref[T]) Trigger() {
	r.pub.Notify()
}

func (r *Ref[T]) Walk(visit func(any)) {
	visit(r.Get())
}

func (r *Ref[T]) String() string {
	return fmt.Sprint(r.Peek())
}

// Object is a reactive string-keyed record. Each key is tracked on its own,
// and a separate shape is tracked by reads that depend on which keys exist.
// Nested map[string]any values are stored as nested Objects.
type Object struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]any
	pubs   map[string]*internal.Publisher

	shape *internal.Publisher
}

func NewObject(init map[string]any) *Object {
	o := &Object{
		values: make(map[string]any, len(init)),
		pubs:   make(map[string]*internal.Publisher, len(init)),
		shape:  internal.NewPublisher("shape"),
	}

	keys := make([]string, 0, len(init))
	for k := range init {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		o.keys = append(o.keys, k)
		o.values[k] = reactive(init[k])
		o.pubs[k] = internal.NewPublisher(k)
	}

	return o
}

func reactive(v any) any {
	if m, ok := v.(map[string]any); ok {
		return NewObject(m)
	}

	return v
}

// Get returns the value at key and tracks the read.
// Reading a nested Object also tracks its shape; reading a missing key tracks
// this object's shape, so adding the key later notifies the reader.
func (o *Object) Get(key string) any {
	if o == nil {
		return nil
	}

	o.mu.RLock()
	v, ok := o.values[key]
	pub := o.pubs[key]
	o.mu.RUnlock()

	if !ok {
		o.shape.Depend()
		return nil
	}

	pub.Depend()
	if child, ok := v.(*Object); ok && child != nil {
		child.shape.Depend()
	}

	return v
}

// Peek returns the value at key without tracking it.
func (o *Object) Peek(key string) any {
	if o == nil {
		return nil
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.values[key]
}

// Has reports whether key exists.
func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}

	o.mu.RLock()
	_, ok := o.values[key]
	pub := o.pubs[key]
	o.mu.RUnlock()

	if ok {
		pub.Depend()
	} else {
		o.shape.Depend()
	}

	return ok
}

// Set stores v at key. Setting the same value again notifies no one;
// adding a new key also notifies the readers of the shape.
func (o *Object) Set(key string, v any) {
	v = reactive(v)

	o.mu.Lock()
	old, exists := o.values[key]
	if exists && internal.Unchanged(old, v) {
		o.mu.Unlock()
		return
	}

	pub, ok := o.pubs[key]
	if !ok {
		pub = internal.NewPublisher(key)
		o.pubs[key] = pub
	}
	if !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	o.mu.Unlock()

	if exists {
		pub.Notify()
		return
	}

	internal.GetRuntime().Batch(func() {
		pub.Notify()
		o.shape.Notify()
	})
}

// Delete removes key, notifying its readers and the readers of the shape.
func (o *Object) Delete(key string) {
	o.mu.Lock()
	if _, ok := o.values[key]; !ok {
		o.mu.Unlock()
		return
	}

	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	pub := o.pubs[key]
	o.mu.Unlock()

	internal.GetRuntime().Batch(func() {
		pub.Notify()
		o.shape.Notify()
	})
}

// Keys returns the keys in insertion order and tracks the shape.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	o.shape.Depend()

	o.mu.RLock()
	defer o.mu.RUnlock()

	return slices.Clone(o.keys)
}

func (o *Object) Len() int {
	return len(o.Keys())
}

// Walk reads every key through Get.
func (o *Object) Walk(visit func(any)) {
	for _, k := range o.Keys() {
		visit(o.Get(k))
	}
}

// Snapshot returns an untracked plain copy, with nested Objects as maps.
func (o *Object) Snapshot() map[string]any {
	if o == nil {
		return nil
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make(map[string]any, len(o.values))
	for k, v := range o.values {
		if child, ok := v.(*Object); ok {
			out[k] = child.Snapshot()
			continue
		}
		out[k] = v
	}

	return out
}

func (o *Object) String() string {
	return fmt.Sprint(o.Snapshot())
}
