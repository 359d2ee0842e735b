// Package fakeapi is an in-memory telephony.API for tests.
package fakeapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-voice-server/telephony"
)

var _ telephony.API = (*FakeAPI)(nil)

type Update struct {
	CallSID string
	Params  telephony.UpdateCallParams
}

type FakeAPI struct {
	lock    sync.Mutex
	created []telephony.CreateCallParams
	updates []Update
	next    int

	// FailTo makes CreateCall fail for the given destination numbers.
	FailTo map[string]error
	// UpdateErr is returned from every UpdateCall when set.
	UpdateErr error
}

func New() *FakeAPI {
	return &FakeAPI{FailTo: make(map[string]error)}
}

func (f *FakeAPI) CreateCall(ctx context.Context, params telephony.CreateCallParams) (*telephony.Call, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.created = append(f.created, params)
	if err, ok := f.FailTo[params.To]; ok {
		return nil, err
	}
	f.next++
	return &telephony.Call{
		SID:    fmt.Sprintf("CA%04d", f.next),
		To:     params.To,
		From:   params.From,
		Status: "queued",
	}, nil
}

func (f *FakeAPI) UpdateCall(ctx context.Context, callSID string, params telephony.UpdateCallParams) (*telephony.Call, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.updates = append(f.updates, Update{CallSID: callSID, Params: params})
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	return &telephony.Call{SID: callSID, Status: "in-progress"}, nil
}

// Created returns the create requests in the order they were made.
func (f *FakeAPI) Created() []telephony.CreateCallParams {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]telephony.CreateCallParams(nil), f.created...)
}

func (f *FakeAPI) Updates() []Update {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]Update(nil), f.updates...)
}
