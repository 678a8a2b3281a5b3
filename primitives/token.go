// MIT License
//
// Copyright (c) 2025-2026 AtomGrid Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package primitives

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// token wire fields, in the order they are emitted
const (
	tokenNodeField protowire.Number = 1
	tokenNameField protowire.Number = 2
)

// Token is the identity pair a handle turns into when it crosses a
// serialization boundary. It carries the node identifier and the data
// structure name; the value and removal state are never transmitted. The
// receiving process resolves the token against its own registry and binds to
// the same cluster-wide data structure, not a copy.
//
// Decode and resolve are two explicit steps on a value type so nothing is
// staged through shared scratch storage between them.
type Token struct {
	// NodeID identifies the execution context whose registry resolves the name.
	NodeID string
	// Name is the data structure's cluster-wide name.
	Name string
}

// Encode marshals the token into its wire form: two length-delimited fields,
// node identifier then name.
func (t Token) Encode() []byte {
	out := protowire.AppendTag(nil, tokenNodeField, protowire.BytesType)
	out = protowire.AppendString(out, t.NodeID)
	out = protowire.AppendTag(out, tokenNameField, protowire.BytesType)
	out = protowire.AppendString(out, t.Name)
	return out
}

// DecodeToken unmarshals a token from its wire form. Unknown fields are
// skipped so the format can grow.
func DecodeToken(data []byte) (Token, error) {
	var token Token
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Token{}, fmt.Errorf("corrupt token: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == tokenNodeField && typ == protowire.BytesType:
			value, n := protowire.ConsumeString(data)
			if n < 0 {
				return Token{}, fmt.Errorf("corrupt token: %w", protowire.ParseError(n))
			}
			token.NodeID = value
			data = data[n:]
		case num == tokenNameField && typ == protowire.BytesType:
			value, n := protowire.ConsumeString(data)
			if n < 0 {
				return Token{}, fmt.Errorf("corrupt token: %w", protowire.ParseError(n))
			}
			token.Name = value
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Token{}, fmt.Errorf("corrupt token: %w", protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return token, nil
}

// Resolve binds the token to the live counter it names. The node identifier
// selects the registry; the registry then binds to the existing cluster-wide
// value without creating one. A name that no longer exists fails with a
// RehydrationError rather than a silent default.
func (t Token) Resolve(ctx context.Context) (*AtomicLong, error) {
	node, ok := LookupNode(t.NodeID)
	if !ok {
		return nil, &RehydrationError{Name: t.Name, Err: fmt.Errorf("unknown node=(%s)", t.NodeID)}
	}
	handle, err := node.Registry().GetOrCreateLong(ctx, t.Name, 0, false)
	if err != nil {
		return nil, &RehydrationError{Name: t.Name, Err: err}
	}
	return handle, nil
}

// DecodeAndResolve runs the decode then resolve pipeline in one call.
func DecodeAndResolve(ctx context.Context, data []byte) (*AtomicLong, error) {
	token, err := DecodeToken(data)
	if err != nil {
		return nil, &RehydrationError{Err: err}
	}
	return token.Resolve(ctx)
}
