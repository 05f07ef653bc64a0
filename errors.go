// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import (
	"code.hybscloud.com/iox"
	goerrors "github.com/agilira/go-errors"
)

// ErrWouldBlock indicates an operation could not proceed immediately: a
// socket ring is full (enqueue) or empty (dequeue). It is a control flow
// signal, not a failure, and is never returned from the control surface.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency with
// code.hybscloud.com/lfq, the library the socket output ring is adapted
// from.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// Control-surface error kinds (§7: configuration error, resource
// exhaustion). These are coded, structured errors — callers branch on
// Kind(err), not on string matching — and never carry packet-level drop
// information, which is accounted purely in counters (see GroupStats,
// SocketStats).
const (
	KindBadGroupID        = "pfq.bad_group_id"
	KindBadClassMask      = "pfq.bad_class_mask"
	KindPermissionDenied  = "pfq.permission_denied"
	KindUnknownPrimitive  = "pfq.unknown_primitive"
	KindInvalidVID        = "pfq.invalid_vid"
	KindNoFreeSocket      = "pfq.no_free_socket"
	KindNoFreeGroup       = "pfq.no_free_group"
	KindPoolExhausted     = "pfq.pool_exhausted"
	KindBatchOverflow     = "pfq.batch_overflow"
	KindInvalidConfigSize = "pfq.invalid_config_size"
)

var (
	ErrBadGroupID       = goerrors.New(KindBadGroupID, "group id out of range")
	ErrBadClassMask     = goerrors.New(KindBadClassMask, "class mask exceeds Q_MAX_CLASS bits")
	ErrPermissionDenied = goerrors.New(KindPermissionDenied, "socket not permitted to join this group")
	ErrUnknownPrimitive = goerrors.New(KindUnknownPrimitive, "unknown classifier primitive")
	ErrInvalidVID       = goerrors.New(KindInvalidVID, "vlan id out of range")
	ErrNoFreeSocket     = goerrors.New(KindNoFreeSocket, "no free socket id")
	ErrNoFreeGroup      = goerrors.New(KindNoFreeGroup, "no free group id")
	ErrPoolExhausted    = goerrors.New(KindPoolExhausted, "buffer pool allocation failed")

	ErrInvalidConfigValue = goerrors.New(KindInvalidConfigSize, "configuration value out of range")
)

// Kind reports the coded kind of a control-surface error, or "" if err is
// nil or not one of ours.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e.Code
	}
	return ""
}
