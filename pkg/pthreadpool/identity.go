package pthreadpool

import "reflect"

// funcIdentity returns a comparable value uniquely identifying fn's entry
// point, standing in for the C pool's raw function-pointer equality.
// A nil fn maps to 0, which can never collide with a real function value
// (reflect.ValueOf(fn).Pointer() is never 0 for a non-nil func).
func funcIdentity(fn func(payload any)) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

// payloadEqual reports whether two job payloads should be considered the
// same payload for cancellation matching. The original compares raw
// void* pointers; Go payloads are interface{} values that may box
// non-pointer data, so comparable payloads are compared with ==, which
// for pointer-shaped payloads (the common case — callers pass a pointer
// to their own state) gives the same pointer-equality semantics as the
// original. Uncomparable payloads (slices, maps, funcs) never match.
func payloadEqual(a, b any) bool {
	defer func() { recover() }() //nolint:errcheck // comparing an uncomparable type panics; treat as unequal
	return a == b
}
