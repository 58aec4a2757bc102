//go:build js && wasm

package transport

import (
	"fmt"
	"syscall/js"
	"time"
)

// DOMFrameLoader appends a hidden iframe to the document and removes it
// again with setTimeout.
type DOMFrameLoader struct{}

func (DOMFrameLoader) LoadFrame(url string, ttl time.Duration) error {
	doc := js.Global().Get("document")
	if doc.IsUndefined() || doc.IsNull() {
		return fmt.Errorf("load frame: no document")
	}
	cont := doc.Get("body")
	if cont.IsUndefined() || cont.IsNull() {
		cont = doc.Get("documentElement")
	}

	iframe := doc.Call("createElement", "iframe")
	iframe.Get("style").Set("display", "none")
	iframe.Call("setAttribute", "src", url)
	cont.Call("appendChild", iframe)

	var cleanup js.Func
	cleanup = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if parent := iframe.Get("parentNode"); !parent.IsNull() && !parent.IsUndefined() {
			parent.Call("removeChild", iframe)
		}
		cleanup.Release()
		return nil
	})
	js.Global().Call("setTimeout", cleanup, ttl.Milliseconds())
	return nil
}

// GlobalProxy calls window[object][method](payload).
type GlobalProxy struct{}

func (GlobalProxy) Invoke(object, method, payload string) error {
	obj := js.Global().Get(object)
	if obj.IsUndefined() || obj.IsNull() {
		return fmt.Errorf("%w: %s", ErrNoProxy, object)
	}
	if obj.Get(method).Type() != js.TypeFunction {
		return fmt.Errorf("%w: %s.%s", ErrNoProxy, object, method)
	}
	obj.Call(method, payload)
	return nil
}
