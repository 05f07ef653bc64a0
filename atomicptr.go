// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "unsafe"

// ptrToUintptr and ptrFromUintptr box/unbox a Go pointer into the
// uintptr payload atomix.Uintptr stores (code.hybscloud.com/lfq's
// mpmc_compact.go uses the identical trick to hold arbitrary 63-bit
// values in a CAS slot). atomix has no generic atomic pointer type, so
// this is the thin adapter the group table, device map and socket state
// blob use for atomic pointer-swap-then-epoch-free fields (§5, §9).
//
// The boxed value must stay reachable by a real Go pointer for as long
// as any reader might still hold the uintptr, since a bare uintptr is
// invisible to the garbage collector. Callers satisfy this by retiring
// the old value through an epochReclaimer, whose pending-item closure
// captures the typed pointer (not just the uintptr) until every CPU has
// quiesced past the epoch of the swap.
func ptrToUintptr[T any](p *T) uintptr {
	return uintptr(unsafe.Pointer(p))
}

func ptrFromUintptr[T any](u uintptr) *T {
	return (*T)(unsafe.Pointer(u))
}
