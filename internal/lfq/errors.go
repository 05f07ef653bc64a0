// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import "code.hybscloud.com/iox"

// ErrWouldBlock indicates an enqueue or dequeue could not proceed
// immediately (queue full or empty). It is a control-flow signal, not a
// failure.
var ErrWouldBlock = iox.ErrWouldBlock
