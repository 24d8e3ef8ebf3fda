// Package format converts entry bytes to and from their in-memory values.
//
// Loading is driven by the content type's FormatDescriptor. Saving is driven by
// the value's data type first: a value written back to its own format family
// is re-encoded directly, anything else is bridged on a best-effort basis and
// reported as a Warning.
package format

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/nbt"
)

// DefaultHeaderVersion is the storage version written into a level.dat header
// when the value being saved did not come with one.
const DefaultHeaderVersion = 10

// Warning describes a lossy or guessed conversion made while saving.
type Warning struct {
	From    core.DataType
	To      core.FormatDescriptor
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s -> %s: %s", w.From, w.To, w.Message)
}

// Config holds the engine dependencies.
type Config struct {
	Logger *slog.Logger
	// OnWarning is called for every bridged conversion. Optional.
	OnWarning func(Warning)
}

// Engine is the format conversion engine. It is safe for concurrent use.
type Engine struct {
	logger    *slog.Logger
	onWarning func(Warning)
	reg       *registry
}

type registry struct {
	mu     sync.RWMutex
	codecs map[string]core.CustomCodec
}

// NewEngine creates an engine with an empty codec registry.
func NewEngine(config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		logger:    logger,
		onWarning: config.OnWarning,
		reg:       &registry{codecs: make(map[string]core.CustomCodec)},
	}
}

// Fork returns an engine sharing e's codec registry and logger that reports
// warnings to onWarning instead.
func (e *Engine) Fork(onWarning func(Warning)) *Engine {
	return &Engine{logger: e.logger, onWarning: onWarning, reg: e.reg}
}

// Register adds a custom codec under its name, replacing any previous one.
func (e *Engine) Register(c core.CustomCodec) {
	e.reg.mu.Lock()
	defer e.reg.mu.Unlock()
	e.reg.codecs[c.Name()] = c
}

// Codec looks up a registered codec.
func (e *Engine) Codec(name string) (core.CustomCodec, bool) {
	e.reg.mu.RLock()
	defer e.reg.mu.RUnlock()
	c, ok := e.reg.codecs[name]
	return c, ok
}

// Codecs returns the registered codec names, sorted.
func (e *Engine) Codecs() []string {
	e.reg.mu.RLock()
	defer e.reg.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.reg.codecs))
}

func (e *Engine) warn(from core.DataType, to core.FormatDescriptor, msg string) {
	w := Warning{From: from, To: to, Message: msg}
	e.logger.Warn("format bridge", "from", from, "to", to.String(), "detail", msg)
	if e.onWarning != nil {
		e.onWarning(w)
	}
}

// Load decodes raw bytes according to desc.
func (e *Engine) Load(raw []byte, desc core.FormatDescriptor) (core.Value, error) {
	v := core.Value{Format: desc}
	switch desc.Type {
	case core.FormatNBT:
		d, err := decodeNBT(raw, desc.NBT)
		if err != nil {
			return core.Value{}, err
		}
		v.Type, v.NBT = core.DataNBT, d
		v.Layout = v.CurrentLayout()

	case core.FormatSNBT:
		c, err := nbt.ParseSNBT(string(raw))
		if err != nil {
			return core.Value{}, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		v.Type, v.Compound = core.DataNBTCompound, c

	case core.FormatJSON:
		if !json.Valid(raw) {
			return core.Value{}, fmt.Errorf("%w: malformed JSON", core.ErrInvalidValue)
		}
		v.Type, v.Text = core.DataJSON, string(raw)

	case core.FormatASCII:
		v.Type, v.Text = core.DataASCII, string(raw)

	case core.FormatUTF8:
		v.Type, v.Text = core.DataUTF8, string(raw)

	case core.FormatHex:
		v.Type, v.Text = core.DataHex, encodeHex(raw)

	case core.FormatBinaryPlainText:
		v.Type, v.Text = core.DataBinaryPlainText, encodeBits(raw)

	case core.FormatInt:
		n, err := decodeInt(raw, desc.Int)
		if err != nil {
			return core.Value{}, err
		}
		v.Type, v.Int = core.DataInt, n

	case core.FormatBinary:
		v.Type, v.Bytes = core.DataBinary, clone(raw)

	case core.FormatCustom:
		if desc.Custom == nil {
			return core.Value{}, fmt.Errorf("custom format without a codec")
		}
		res, err := desc.Custom.Parse(raw)
		if err != nil {
			return core.Value{}, fmt.Errorf("%s: %w", desc.Custom.Name(), err)
		}
		if err := setCustomResult(&v, desc.Custom.Result(), res); err != nil {
			return core.Value{}, fmt.Errorf("%s: %w", desc.Custom.Name(), err)
		}

	default:
		v.Type, v.Bytes = core.DataUnknown, clone(raw)
	}
	return v, nil
}

func setCustomResult(v *core.Value, shape core.ResultShape, res any) error {
	switch shape {
	case core.ResultJSONNBT:
		c, ok := res.(*nbt.Compound)
		if !ok {
			return fmt.Errorf("codec returned %T, want *nbt.Compound", res)
		}
		v.Type, v.Compound = core.DataNBTCompound, c
	case core.ResultSNBT:
		s, ok := res.(string)
		if !ok {
			return fmt.Errorf("codec returned %T, want string", res)
		}
		v.Type, v.Text = core.DataUTF8, s
	case core.ResultBuffer, core.ResultUnknown:
		b, ok := res.([]byte)
		if !ok {
			return fmt.Errorf("codec returned %T, want []byte", res)
		}
		v.Type, v.Bytes = core.DataBinary, b
		if shape == core.ResultUnknown {
			v.Type = core.DataUnknown
		}
	default:
		return fmt.Errorf("unknown result shape %q", shape)
	}
	return nil
}

func decodeNBT(raw []byte, o core.NBTOptions) (*core.NBTData, error) {
	d := &core.NBTData{Encoding: o.Encoding, Multi: o.Multi, Header: o.Header}
	if o.Header {
		if len(raw) < 8 {
			return nil, fmt.Errorf("%w: level.dat header needs 8 bytes, got %d", core.ErrInvalidValue, len(raw))
		}
		d.HeaderVersion = int32(binary.LittleEndian.Uint32(raw[0:4]))
		size := binary.LittleEndian.Uint32(raw[4:8])
		raw = raw[8:]
		if uint64(size) != uint64(len(raw)) {
			return nil, fmt.Errorf("%w: header declares %d payload bytes, found %d", core.ErrInvalidValue, size, len(raw))
		}
	}
	if o.Multi {
		roots, err := nbt.DecodeAll(raw, o.Encoding)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
		}
		d.Roots = roots
		return d, nil
	}
	name, root, n, err := nbt.Decode(raw, o.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
	}
	if n != len(raw) {
		return nil, fmt.Errorf("%w: %d trailing bytes after root compound", core.ErrInvalidValue, len(raw)-n)
	}
	d.Name, d.Roots = name, []*nbt.Compound{root}
	return d, nil
}

func encodeNBT(d *core.NBTData) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	if d.Multi {
		payload, err = nbt.EncodeAll(d.Roots, d.Encoding)
	} else {
		if len(d.Roots) != 1 {
			return nil, fmt.Errorf("%w: single-root NBT holds %d roots", core.ErrInvalidValue, len(d.Roots))
		}
		payload, err = nbt.Encode(d.Name, d.Roots[0], d.Encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidValue, err)
	}
	if !d.Header {
		return payload, nil
	}
	out := make([]byte, 8, 8+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(d.HeaderVersion))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	return append(out, payload...), nil
}

// layoutData builds the NBT payload for roots written with the options of a
// format and the layout a value carries. A header without a recorded version
// gets DefaultHeaderVersion.
func layoutData(roots []*nbt.Compound, o core.NBTOptions, l core.NBTLayout) *core.NBTData {
	d := &core.NBTData{
		Encoding:      o.Encoding,
		Roots:         roots,
		Multi:         o.Multi || len(roots) != 1,
		Header:        o.Header,
		HeaderVersion: l.HeaderVersion,
	}
	if !d.Multi {
		d.Name = l.Name
	}
	if d.Header && d.HeaderVersion == 0 {
		d.HeaderVersion = DefaultHeaderVersion
	}
	return d
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return append([]byte(nil), b...)
}
