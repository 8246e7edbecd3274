// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import "github.com/jontk/bb-agent/pkg/wire"

// PackState serializes State.Config and the space accounting fields into
// the wire codec, in the fixed field order the external snapshot protocol
// defines. protocolVersion is accepted for parity with the original
// pack_state signature but this implementation fixes a single wire
// layout.
func PackState(s *State, protocolVersion uint16) []byte {
	cfg := &s.Config
	p := wire.NewPacker()

	p.PackStr(cfg.AllowUsersStr)
	p.PackStr(cfg.DenyUsersStr)
	p.PackStr(cfg.GetSysState)
	p.PackU32(cfg.Granularity)
	p.PackU32(uint32(len(cfg.Gres)))
	for _, g := range cfg.Gres {
		p.PackStr(g.Name)
		p.PackU32(g.AvailCnt)
		p.PackU32(g.UsedCnt)
	}
	privateData := uint16(0)
	if cfg.PrivateData {
		privateData = 1
	}
	p.PackU16(privateData)
	p.PackStr(cfg.StartStageIn)
	p.PackStr(cfg.StartStageOut)
	p.PackStr(cfg.StopStageIn)
	p.PackStr(cfg.StopStageOut)
	p.PackU32(cfg.JobSizeLimit)
	p.PackU32(cfg.PrioBoostAlloc)
	p.PackU32(cfg.PrioBoostUse)
	p.PackU32(cfg.StageInTimeout)
	p.PackU32(cfg.StageOutTimeout)
	p.PackU32(s.TotalSpace)
	p.PackU32(s.UsedSpace)
	p.PackU32(cfg.UserSizeLimit)

	return p.Bytes()
}

// PackBufs serializes allocation records from the allocation table,
// filtered by uid (0 = all), in the fixed per-record wire order. It
// returns the packed bytes and the number of records written.
func PackBufs(s *State, uid uint32, protocolVersion uint16) ([]byte, int) {
	p := wire.NewPacker()
	count := 0

	s.Tables.ForEachAlloc(func(a *Alloc) {
		if uid != 0 && uid != a.UserID {
			return
		}

		p.PackU32(a.ArrayJobID)
		p.PackU32(a.ArrayTaskID)
		p.PackU32(uint32(len(a.Gres)))
		for _, g := range a.Gres {
			p.PackStr(g.Name)
			p.PackU32(g.AvailCnt)
			p.PackU32(g.UsedCnt)
		}
		p.PackU32(a.JobID)
		p.PackStr(a.Name)
		p.PackU32(a.Size)
		p.PackU16(uint16(a.State))
		p.PackTime(a.StateTime)
		p.PackU32(a.UserID)
		count++
	})

	return p.Bytes(), count
}
