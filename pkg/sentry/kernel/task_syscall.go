// Copyright 2025 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import (
	"golang.org/x/sys/unix"
	"trapgate.dev/trapgate/pkg/abi/linux"
	"trapgate.dev/trapgate/pkg/errors/kernerr"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/metric"
	"trapgate.dev/trapgate/pkg/sentry/arch"
)

// ecallSize is the length of the instruction that raised a syscall trap.
const ecallSize = 4

var unknownSyscalls = metric.MustCreateNewUint64Metric("/kernel/unknown_syscalls", "Number of traps with a syscall number that has no binding.")

// Syscall handles the syscall trap recorded in t's snapshot and writes the
// result to the result register.
//
// Preconditions: The caller must be running on the task goroutine.
func (t *Task) Syscall() {
	if t.Exited() {
		log.Warningf("[%v] syscall trap after exit ignored", t.tid)
		return
	}

	// The saved pc points at the ecall; resume after it.
	t.regs.Sepc += ecallSize

	sysno := t.regs.SyscallNo()
	args := t.regs.SyscallArgs()
	if sysno < linux.MaxSyscallNum {
		t.mu.Lock()
		t.syscallCounts[sysno]++
		t.mu.Unlock()
	}

	rval, ctrl, err := t.executeSyscall(sysno, args)
	if ctrl != nil && ctrl.exit {
		return
	}
	if err != nil {
		rval = uintptr(kernerr.Sentinel(err))
	}
	t.regs.SetReturn(rval)
}

// executeSyscall routes sysno to its binding.
func (t *Task) executeSyscall(sysno uintptr, args arch.SyscallArguments) (rval uintptr, ctrl *SyscallControl, err error) {
	s := t.k.st
	fn := s.Lookup(sysno)
	if fn == nil {
		unknownSyscalls.Increment()
		t.k.unknownSyscallLog.Warningf("[%v] %v: %d", t.tid, kernerr.UnknownSyscall, sysno,
			log.Fields{"tid": t.tid, "sysno": sysno})
		return 0, nil, kernerr.UnknownSyscall
	}
	s.countSyscall(sysno)

	name := s.LookupName(sysno)
	if log.IsLogging(log.Debug) {
		log.Debugf("[%v] %s(%#x, %#x, %#x, %#x, %#x, %#x)", t.tid, name,
			args[0].Value, args[1].Value, args[2].Value, args[3].Value, args[4].Value, args[5].Value,
			log.Fields{"tid": t.tid, "syscall": name, "sysno": sysno})
	}

	rval, ctrl, err = fn(t, args)

	if err != nil && log.IsLogging(log.Debug) {
		log.Debugf("[%v] %s failed: %v (%s)", t.tid, name, err, unix.ErrnoName(kernerr.ToUnix(err)),
			log.Fields{"tid": t.tid, "syscall": name, "error": err.Error()})
	}
	if t.k.strace {
		f := log.Fields{"tid": t.tid, "syscall": name}
		switch {
		case ctrl != nil && ctrl.exit:
			log.Infof("[%v] %s(%#x) = ?", t.tid, name, args[0].Value, f)
		case err != nil:
			f["ret"] = kernerr.Sentinel(err)
			f["error"] = err.Error()
			log.Infof("[%v] %s(%#x, %#x, %#x) = %d (%v)", t.tid, name, args[0].Value, args[1].Value, args[2].Value, kernerr.Sentinel(err), err, f)
		default:
			f["ret"] = int64(rval)
			log.Infof("[%v] %s(%#x, %#x, %#x) = %d", t.tid, name, args[0].Value, args[1].Value, args[2].Value, int64(rval), f)
		}
	}
	return rval, ctrl, err
}
