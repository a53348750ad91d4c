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

// Package boot loads a workload into a fresh kernel and runs its tasks.
package boot

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"trapgate.dev/trapgate/pkg/log"
	"trapgate.dev/trapgate/pkg/sentry/devices/console"
	"trapgate.dev/trapgate/pkg/sentry/kernel"
	"trapgate.dev/trapgate/pkg/sentry/ktime"
	"trapgate.dev/trapgate/pkg/sentry/pgalloc"
	slinux "trapgate.dev/trapgate/pkg/sentry/syscalls/linux"
	"trapgate.dev/trapgate/trapgate/config"
)

// Loader keeps state needed to start the kernel and run the workload.
type Loader struct {
	// k is the kernel.
	k *kernel.Kernel

	conf *config.Config

	mf *pgalloc.MemoryFile

	workload *Workload

	// console backs fds 0 and 1.
	console console.Device
}

// New initializes a new kernel loader configured by conf, holding the images
// of w.
func New(conf *config.Config, w *Workload) (*Loader, error) {
	images, err := w.Registry()
	if err != nil {
		return nil, err
	}
	mf, err := pgalloc.NewMemoryFile(uint32(conf.Frames))
	if err != nil {
		return nil, fmt.Errorf("error creating memory file: %w", err)
	}
	cons, err := createConsole(conf, w)
	if err != nil {
		return nil, err
	}

	k := &kernel.Kernel{}
	if err := k.Init(kernel.InitKernelArgs{
		MemoryFile:                mf,
		Clock:                     ktime.NewHostClock(conf.Frequency),
		Console:                   cons,
		Images:                    images,
		SyscallTable:              slinux.RISCV64,
		MaxStrLen:                 conf.MaxStrLen,
		UnknownSyscallLogInterval: conf.UnknownSyscallLogInterval,
		Strace:                    conf.Strace,
	}); err != nil {
		return nil, fmt.Errorf("error initializing kernel: %w", err)
	}
	return &Loader{
		k:        k,
		conf:     conf,
		mf:       mf,
		workload: w,
		console:  cons,
	}, nil
}

func createConsole(conf *config.Config, w *Workload) (console.Device, error) {
	if conf.Console == config.ConsoleHost {
		return console.NewHost(os.Stdin, os.Stdout, conf.ConsoleRaw)
	}
	return console.NewBuffer(w.Input), nil
}

// Kernel returns the kernel.
func (l *Loader) Kernel() *kernel.Kernel {
	return l.k
}

// Console returns the console device.
func (l *Loader) Console() console.Device {
	return l.console
}

// Destroy releases resources held by the loader.
func (l *Loader) Destroy() {
	if h, ok := l.console.(*console.Host); ok {
		if err := h.Close(); err != nil {
			log.Warningf("Restoring console: %v", err)
		}
	}
	used, total := l.mf.Usage()
	log.Infof("Frames in use at exit: %d/%d", used, total)
}

// Run creates every task of the workload, in order, and runs their scripts
// on conf.Harts harts. It returns one Result per task.
func (l *Loader) Run(ctx context.Context) ([]*Result, error) {
	tasks := make([]*kernel.Task, len(l.workload.Tasks))
	for i, ts := range l.workload.Tasks {
		t, err := l.k.CreateProcess(ts.Image)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		tasks[i] = t
	}

	results := make([]*Result, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.conf.Harts)
	for i, t := range tasks {
		traps := l.workload.Tasks[i].Traps
		g.Go(func() error {
			r, err := l.runScript(ctx, t, traps)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runScript drives t through traps. The script ends early if t exits.
func (l *Loader) runScript(ctx context.Context, t *kernel.Task, traps []Trap) (*Result, error) {
	res := &Result{TID: t.ThreadID(), Image: t.Name()}
	defer func() {
		res.ExitCode, res.Exited = t.ExitCode()
		if m := t.MemoryManager(); m != nil && log.IsLogging(log.Debug) {
			log.Debugf("Task %v maps after script:\n%s", t.ThreadID(), m.MapsString())
		}
	}()

	st := l.k.SyscallTable()
	for i := range traps {
		tr := &traps[i]
		sysno, err := tr.resolve(st)
		if err != nil {
			return res, fmt.Errorf("task %v trap %d: %w", t.ThreadID(), i, err)
		}
		regs := tr.registers()
		for n := 0; n < max(tr.Repeat, 1); n++ {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if t.Exited() {
				log.Debugf("Task %v exited, %d traps not run", t.ThreadID(), len(traps)-i)
				return res, nil
			}
			t.Arch().SetSyscall(sysno, regs...)
			t.Syscall()
			ret := int64(t.Arch().Return())
			res.Traps = append(res.Traps, TrapResult{
				Syscall: st.LookupName(sysno),
				Args:    tr.Args,
				Return:  ret,
			})
			if len(tr.Child) == 0 || ret <= 0 {
				continue
			}
			child := l.k.TaskSet().TaskWithID(kernel.ThreadID(ret))
			if child == nil {
				return res, fmt.Errorf("task %v trap %d: no child task %d", t.ThreadID(), i, ret)
			}
			cr, err := l.runScript(ctx, child, tr.Child)
			if cr != nil {
				res.Children = append(res.Children, cr)
			}
			if err != nil {
				return res, err
			}
		}
	}
	return res, nil
}
