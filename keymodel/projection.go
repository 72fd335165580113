package keymodel

import "unsafe"

// Projector maps a record (or a reference to one) to its sort key. It must
// be pure and side-effect-free and return the same value for the same
// input across one sort call (spec.md §4.1, §4.6).
//
// spec.md §9 asks for a unified sum type
// `Projection = FieldOffset(usize) | FnOnceRef(fn) | FnOnceRefParam(fn,param)`.
// In Go the idiomatic unification of "a field offset, a getter, or a
// getter with a bound parameter" is simply a function value: all three
// constructors below return a Projector, and callers are free to write
// their own closure instead of using a constructor at all.
type Projector[T, K any] func(T) K

// FieldOffset builds a Projector that reads a K-sized key living at a fixed
// byte offset inside T, the way a member-pointer projection would in the
// original. It is unsafe: the caller must ensure offset+sizeof(K) <=
// sizeof(T) and that the field at that offset really is a K.
func FieldOffset[T, K any](offset uintptr) Projector[T, K] {
	return func(t T) K {
		base := unsafe.Pointer(&t)
		return *(*K)(unsafe.Add(base, offset))
	}
}

// FromFunc wraps a plain getter as a Projector.
func FromFunc[T, K any](fn func(T) K) Projector[T, K] {
	return fn
}

// FromFuncParam wraps a getter that also needs a fixed extra parameter
// bound at call time (the FnOnceRefParam case of §9).
func FromFuncParam[T, K, P any](fn func(T, P) K, param P) Projector[T, K] {
	return func(t T) K { return fn(t, param) }
}
