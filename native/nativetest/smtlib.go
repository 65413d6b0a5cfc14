package nativetest

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/typedz3/z3/native"
)

// A small SMT-LIB2 reader covering the commands and theories the engine
// models: declarations, assertions, push/pop and let-bindings over Bool,
// Int, Real, bit-vectors and arrays.

type sexp struct {
	atom   string
	list   []sexp
	isList bool
}

func parseErr(format string, args ...any) error {
	return native.Errorf(native.ParserError, format, args...)
}

func tokenize(src string) ([]string, error) {
	var toks []string
	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case ch == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case ch == '(' || ch == ')':
			toks = append(toks, string(ch))
			i++
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '|':
			j := strings.IndexByte(src[i+1:], '|')
			if j < 0 {
				return nil, parseErr("unterminated quoted symbol")
			}
			toks = append(toks, src[i+1:i+1+j])
			i += j + 2
		case ch == '"':
			j := strings.IndexByte(src[i+1:], '"')
			if j < 0 {
				return nil, parseErr("unterminated string literal")
			}
			toks = append(toks, src[i:i+j+2])
			i += j + 2
		default:
			j := i
			for j < len(src) && !strings.ContainsRune("() \t\n\r;|", rune(src[j])) {
				j++
			}
			toks = append(toks, src[i:j])
			i = j
		}
	}
	return toks, nil
}

func readAll(toks []string) ([]sexp, error) {
	var out []sexp
	for len(toks) > 0 {
		e, rest, err := read(toks)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		toks = rest
	}
	return out, nil
}

func read(toks []string) (sexp, []string, error) {
	if len(toks) == 0 {
		return sexp{}, nil, parseErr("unexpected end of input")
	}
	t := toks[0]
	switch t {
	case ")":
		return sexp{}, nil, parseErr("unexpected ')'")
	case "(":
		e := sexp{isList: true}
		rest := toks[1:]
		for {
			if len(rest) == 0 {
				return sexp{}, nil, parseErr("missing ')'")
			}
			if rest[0] == ")" {
				return e, rest[1:], nil
			}
			var child sexp
			var err error
			child, rest, err = read(rest)
			if err != nil {
				return sexp{}, nil, err
			}
			e.list = append(e.list, child)
		}
	}
	return sexp{atom: t}, toks[1:], nil
}

func (e sexp) String() string {
	if !e.isList {
		return e.atom
	}
	parts := make([]string, len(e.list))
	for i, c := range e.list {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type scope struct {
	names map[string]native.Handle
	outer *scope
}

func (s *scope) lookup(name string) (native.Handle, bool) {
	for ; s != nil; s = s.outer {
		if h, ok := s.names[name]; ok {
			return h, true
		}
	}
	return 0, false
}

func (c *context) runScript(sv *solver, src string) error {
	toks, err := tokenize(src)
	if err != nil {
		return err
	}
	cmds, err := readAll(toks)
	if err != nil {
		return err
	}
	top := &scope{names: map[string]native.Handle{}}
	for _, cmd := range cmds {
		if !cmd.isList || len(cmd.list) == 0 || cmd.list[0].isList {
			return parseErr("invalid command, '(' expected")
		}
		args := cmd.list[1:]
		switch cmd.list[0].atom {
		case "set-logic", "set-option", "set-info", "check-sat", "get-model", "get-value",
			"get-info", "get-unsat-core", "exit", "echo":
		case "declare-const":
			if len(args) != 2 {
				return parseErr("invalid constant declaration")
			}
			if err := c.declare(top, args[0], args[1]); err != nil {
				return err
			}
		case "declare-fun":
			if len(args) != 3 || !args[1].isList || len(args[1].list) != 0 {
				return parseErr("only constants can be declared")
			}
			if err := c.declare(top, args[0], args[2]); err != nil {
				return err
			}
		case "define-fun", "define-const":
			var body, sortE sexp
			if cmd.list[0].atom == "define-fun" {
				if len(args) != 4 || !args[1].isList || len(args[1].list) != 0 {
					return parseErr("only constant definitions are supported")
				}
				sortE, body = args[2], args[3]
			} else {
				if len(args) != 3 {
					return parseErr("invalid constant definition")
				}
				sortE, body = args[1], args[2]
			}
			s, err := c.parseSort(sortE)
			if err != nil {
				return err
			}
			t, err := c.parseTerm(top, body)
			if err != nil {
				return err
			}
			if c.nodes[t].sort != s {
				return native.Errorf(native.SortError, "invalid definition of %s: sort mismatch", args[0].atom)
			}
			top.names[args[0].atom] = t
		case "assert":
			if len(args) != 1 {
				return parseErr("invalid assert command")
			}
			t, err := c.parseTerm(top, args[0])
			if err != nil {
				return err
			}
			if c.kindOf(t) != native.BoolSort {
				return native.Errorf(native.SortError, "assertion is not Boolean")
			}
			sv.add(t)
		case "push", "pop":
			n := uint32(1)
			if len(args) == 1 {
				k, err := strconv.ParseUint(args[0].atom, 10, 32)
				if err != nil {
					return parseErr("invalid scope count %q", args[0].atom)
				}
				n = uint32(k)
			}
			if cmd.list[0].atom == "push" {
				for i := uint32(0); i < n; i++ {
					sv.push()
				}
			} else if err := sv.pop(n); err != nil {
				return err
			}
		case "reset", "reset-assertions":
			sv.frames = [][]native.Handle{nil}
		default:
			return parseErr("unsupported command '%s'", cmd.list[0].atom)
		}
	}
	return nil
}

func (c *context) declare(sc *scope, name, sortE sexp) error {
	if name.isList {
		return parseErr("invalid declaration, symbol expected")
	}
	s, err := c.parseSort(sortE)
	if err != nil {
		return err
	}
	h, err := c.mkConst(name.atom, s)
	if err != nil {
		return err
	}
	sc.names[name.atom] = h
	return nil
}

func (c *context) parseSort(e sexp) (native.Handle, error) {
	if !e.isList {
		switch e.atom {
		case "Bool":
			return c.boolSort(), nil
		case "Int":
			return c.intSort(), nil
		case "Real":
			return c.realSort(), nil
		}
		return 0, parseErr("unknown sort '%s'", e.atom)
	}
	l := e.list
	if len(l) == 3 && l[0].atom == "_" && l[1].atom == "BitVec" {
		w, err := strconv.ParseUint(l[2].atom, 10, 32)
		if err != nil {
			return 0, parseErr("invalid bit-vector width %q", l[2].atom)
		}
		return c.bvSort(uint32(w))
	}
	if len(l) == 3 && l[0].atom == "Array" {
		d, err := c.parseSort(l[1])
		if err != nil {
			return 0, err
		}
		r, err := c.parseSort(l[2])
		if err != nil {
			return 0, err
		}
		return c.arraySort(d, r)
	}
	return 0, parseErr("unknown sort '%s'", e)
}

func (c *context) parseLiteral(a string) (native.Handle, bool, error) {
	switch {
	case a == "true":
		h, err := c.mkApp(native.OpTrue)
		return h, true, err
	case a == "false":
		h, err := c.mkApp(native.OpFalse)
		return h, true, err
	case strings.HasPrefix(a, "#x"):
		x, ok := new(big.Int).SetString(a[2:], 16)
		if !ok {
			return 0, true, parseErr("invalid hex literal %q", a)
		}
		s, err := c.bvSort(uint32(4 * len(a[2:])))
		if err != nil {
			return 0, true, err
		}
		return c.mkValue(bvV(x, uint32(4*len(a[2:]))), s), true, nil
	case strings.HasPrefix(a, "#b"):
		x, ok := new(big.Int).SetString(a[2:], 2)
		if !ok {
			return 0, true, parseErr("invalid binary literal %q", a)
		}
		s, err := c.bvSort(uint32(len(a[2:])))
		if err != nil {
			return 0, true, err
		}
		return c.mkValue(bvV(x, uint32(len(a[2:]))), s), true, nil
	case a != "" && a[0] >= '0' && a[0] <= '9':
		if strings.Contains(a, ".") {
			h, err := c.mkNumeral(a, c.realSort())
			return h, true, err
		}
		h, err := c.mkNumeral(a, c.intSort())
		return h, true, err
	}
	return 0, false, nil
}

func (c *context) parseTerm(sc *scope, e sexp) (native.Handle, error) {
	if !e.isList {
		if h, ok, err := c.parseLiteral(e.atom); ok {
			return h, err
		}
		if h, ok := sc.lookup(e.atom); ok {
			return h, nil
		}
		return 0, parseErr("unknown constant %s", e.atom)
	}
	l := e.list
	if len(l) == 0 {
		return 0, parseErr("invalid empty term")
	}

	// (_ bvN w)
	if !l[0].isList && l[0].atom == "_" {
		if len(l) == 3 && strings.HasPrefix(l[1].atom, "bv") {
			w, err := strconv.ParseUint(l[2].atom, 10, 32)
			if err != nil {
				return 0, parseErr("invalid bit-vector width %q", l[2].atom)
			}
			s, err := c.bvSort(uint32(w))
			if err != nil {
				return 0, err
			}
			return c.mkNumeral(l[1].atom[2:], s)
		}
		return 0, parseErr("invalid indexed term %s", e)
	}

	if !l[0].isList && l[0].atom == "let" {
		if len(l) != 3 || !l[1].isList {
			return 0, parseErr("invalid let")
		}
		inner := &scope{names: map[string]native.Handle{}, outer: sc}
		for _, b := range l[1].list {
			if !b.isList || len(b.list) != 2 {
				return 0, parseErr("invalid let binding")
			}
			t, err := c.parseTerm(sc, b.list[1])
			if err != nil {
				return 0, err
			}
			inner.names[b.list[0].atom] = t
		}
		return c.parseTerm(inner, l[2])
	}

	args := make([]native.Handle, 0, len(l)-1)
	for _, a := range l[1:] {
		t, err := c.parseTerm(sc, a)
		if err != nil {
			return 0, err
		}
		args = append(args, t)
	}

	head := l[0]
	if head.isList {
		hl := head.list
		// ((as const S) v)
		if len(hl) == 3 && hl[0].atom == "as" && hl[1].atom == "const" {
			s, err := c.parseSort(hl[2])
			if err != nil {
				return 0, err
			}
			if len(args) != 1 || c.nodes[s].kind != native.ArraySort {
				return 0, parseErr("invalid constant array")
			}
			return c.mkConstArray(c.nodes[s].dom, args[0])
		}
		// ((_ op i j) t)
		if len(hl) >= 3 && hl[0].atom == "_" && len(args) == 1 {
			op, ok := native.LookupOp(hl[1].atom)
			if !ok || !op.Indexed() {
				return 0, parseErr("unknown indexed operator %s", hl[1].atom)
			}
			idx := make([]uint32, 0, len(hl)-2)
			for _, x := range hl[2:] {
				n, err := strconv.ParseUint(x.atom, 10, 32)
				if err != nil {
					return 0, parseErr("invalid index %q", x.atom)
				}
				idx = append(idx, uint32(n))
			}
			return c.mkIndexed(op, idx, args[0])
		}
		return 0, parseErr("invalid function application %s", e)
	}

	switch head.atom {
	case "-":
		if len(args) == 1 {
			return c.mkApp(native.OpNeg, args...)
		}
	case "/":
		for i, a := range args {
			if c.kindOf(a) == native.IntSort {
				r, err := c.mkApp(native.OpToReal, a)
				if err != nil {
					return 0, err
				}
				args[i] = r
			}
		}
		return c.mkApp(native.OpDiv, args...)
	case "bv2nat":
		return c.mkIndexed(native.OpBv2Int, []uint32{0}, args[0])
	case "bv2int":
		if len(args) != 1 {
			return 0, parseErr("bv2int expects one argument")
		}
		return c.mkIndexed(native.OpBv2Int, []uint32{0}, args[0])
	}
	op, ok := native.LookupOp(head.atom)
	if !ok || op.Indexed() {
		return 0, parseErr("unknown function/constant %s", head.atom)
	}
	return c.mkApp(op, args...)
}
