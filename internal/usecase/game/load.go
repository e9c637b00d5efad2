package game

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding"

	"kifu/internal/charset"
	"kifu/internal/domain/sgf"
	errs "kifu/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type LoadOptions struct {
	// Relaxed skips stray bytes before a tree and inside key positions instead of
	// failing.
	Relaxed bool
	// Decoders resolves CA values; charset.Find when nil.
	Decoders charset.Lookup
}

// Collection is the result of one load: every complete game tree found in the
// buffer, in file order, inside one arena.
type Collection struct {
	Forest *sgf.Forest
	Roots  []sgf.NodeID

	// Charset is the declared encoding the buffer was re-decoded from, empty when no
	// conversion happened.
	Charset string
	// Discarded counts the bytes dropped after the last complete tree and DiscardErr
	// is the error that stopped parsing there.
	Discarded  int
	DiscardErr error
}

// ParseError is a structural error at a byte offset of the (possibly re-decoded)
// buffer.
type ParseError struct {
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v (at byte %d)", e.Err, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// charsetSignal aborts the first tree when it declares a legacy encoding. It never
// leaves LoadSGF.
type charsetSignal struct {
	name string
	enc  encoding.Encoding
}

func (s *charsetSignal) Error() string {
	return "charset declared: " + s.name
}

// LoadSGF parses every game tree in buf. It fails only when not even one tree could
// be read; a broken tree after a good one ends the load and the rest of the buffer
// is reported in Collection.Discarded.
func LoadSGF(buf []byte, opts LoadOptions) (*Collection, error) {
	p := &parser{
		buf:     bytes.TrimPrefix(buf, utf8BOM),
		forest:  sgf.NewForest(),
		relaxed: opts.Relaxed,
		lookup:  opts.Decoders,
	}
	if p.lookup == nil {
		p.lookup = charset.Find
	}
	col := &Collection{Forest: p.forest}

	allowCharset := true
	off := 0
	for off < len(p.buf) {
		root, n, err := p.tree(off, sgf.NoNode, allowCharset)
		allowCharset = false
		if err != nil {
			var sig *charsetSignal
			if errors.As(err, &sig) {
				decoded, derr := charset.Decode(p.buf, sig.enc)
				if derr != nil {
					return nil, &ParseError{Offset: off, Err: fmt.Errorf("%w: %s: %v", errs.ErrCharset, sig.name, derr)}
				}
				p.buf = decoded
				p.forest.Collect()
				col.Charset = sig.name
				continue
			}
			if blank(p.buf[off:]) {
				break
			}
			if len(col.Roots) > 0 {
				col.Discarded = len(p.buf) - off
				col.DiscardErr = err
				break
			}
			return nil, err
		}
		col.Roots = append(col.Roots, root)
		off += n
	}

	if len(col.Roots) == 0 {
		return nil, &ParseError{Offset: off, Err: errs.ErrNoGame}
	}

	// Drop the nodes of any attempt that failed part way.
	p.forest.Collect(col.Roots...)

	for _, id := range col.Roots {
		applyFixups(p.forest.Node(id), p.forest)
	}
	return col, nil
}

type parser struct {
	buf     []byte
	forest  *sgf.Forest
	relaxed bool
	lookup  charset.Lookup
}

func (p *parser) fail(off int, err error) error {
	return &ParseError{Offset: off, Err: err}
}

// tree parses one parenthesised tree starting at off. Its first node is attached to
// parent (NoNode for a game root). It returns the local root and the number of bytes
// consumed, closing parenthesis included.
func (p *parser) tree(off int, parent sgf.NodeID, allowCharset bool) (sgf.NodeID, int, error) {
	var (
		root, node  *sgf.Node
		started     bool
		insideValue bool
		keyComplete bool
		key         []byte
		value       []byte
	)
	buf := p.buf

	for i := off; i < len(buf); i++ {
		c := buf[i]

		if !started {
			switch {
			case c <= ' ':
			case c == '(':
				started = true
			case p.relaxed:
			default:
				return sgf.NoNode, 0, p.fail(i, errs.ErrUnexpectedByte)
			}
			continue
		}

		if insideValue {
			switch c {
			case '\\':
				if i+1 >= len(buf) {
					return sgf.NoNode, 0, p.fail(i, errs.ErrEscapeAtEnd)
				}
				value = append(value, buf[i+1])
				i++
			case ']':
				insideValue = false
				k := string(key)
				v := string(value)
				node.Props.Add(k, v)
				if allowCharset && k == "CA" && len(node.Props.Values("CA")) == 1 && !charset.IsUTF8Alias(v) {
					if enc, ok := p.lookup(v); ok {
						return sgf.NoNode, 0, &charsetSignal{name: v, enc: enc}
					}
				}
			default:
				value = append(value, c)
			}
			continue
		}

		switch {
		case c <= ' ' || (c >= 'a' && c <= 'z'):
		case c == '[':
			if node == nil {
				// "(" followed directly by a property, no ";".
				node = p.forest.NewNode(parent)
				root = node
			}
			if len(key) == 0 {
				return sgf.NoNode, 0, p.fail(i, errs.ErrValueWithoutKey)
			}
			if k := string(key); (k == "B" || k == "W") && node.HasMove() {
				return sgf.NoNode, 0, p.fail(i, errs.ErrMultipleMoves)
			}
			value = value[:0]
			insideValue = true
			keyComplete = true
		case c == '(':
			if node == nil {
				return sgf.NoNode, 0, p.fail(i, errs.ErrSubtreeWithoutNode)
			}
			_, n, err := p.tree(i, node.ID, false)
			if err != nil {
				return sgf.NoNode, 0, err
			}
			i += n - 1
		case c == ')':
			if root == nil {
				return sgf.NoNode, 0, p.fail(i, errs.ErrSubtreeEnd)
			}
			return root.ID, i + 1 - off, nil
		case c == ';':
			if node == nil {
				node = p.forest.NewNode(parent)
				root = node
			} else {
				node = p.forest.NewNode(node.ID)
			}
			key = key[:0]
			keyComplete = false
		case c >= 'A' && c <= 'Z':
			if keyComplete {
				key = key[:0]
				keyComplete = false
			}
			key = append(key, c)
		case p.relaxed:
			key = key[:0]
			keyComplete = false
		default:
			return sgf.NoNode, 0, p.fail(i, errs.ErrUnacceptableByte)
		}
	}

	return sgf.NoNode, 0, p.fail(len(buf), errs.ErrUnbalanced)
}

func blank(b []byte) bool {
	for _, c := range b {
		if c > ' ' {
			return false
		}
	}
	return true
}
