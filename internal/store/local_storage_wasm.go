//go:build js && wasm

package store

import (
	"context"
	"errors"
	"syscall/js"
)

// LocalStorage is the page's window.localStorage.
type LocalStorage struct {
	storage js.Value
}

func NewLocalStorage() (*LocalStorage, error) {
	s := js.Global().Get("localStorage")
	if s.IsUndefined() || s.IsNull() {
		return nil, errors.New("localStorage is not available")
	}
	return &LocalStorage{storage: s}, nil
}

func (l *LocalStorage) SetItem(_ context.Context, key, value string) (err error) {
	// setItem throws when the quota is exceeded; syscall/js turns that into a panic.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("localStorage.setItem failed")
		}
	}()
	l.storage.Call("setItem", key, value)
	return nil
}

func (l *LocalStorage) GetItem(_ context.Context, key string) (string, error) {
	v := l.storage.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", nil
	}
	return v.String(), nil
}
