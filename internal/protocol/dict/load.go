package dict

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/fixwire/internal/protocol/schema"
	"github.com/danmuck/fixwire/internal/protocol/value"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownMember = errors.New("dict: unknown member")
	ErrGroupCycle    = errors.New("dict: group cycle")
	ErrUndecodedKey  = errors.New("dict: unknown key")
)

type fileDictionary struct {
	Name     string        `toml:"name"`
	Header   []string      `toml:"header"`
	Trailer  []string      `toml:"trailer"`
	Fields   []fileField   `toml:"field"`
	Groups   []fileGroup   `toml:"group"`
	Messages []fileMessage `toml:"message"`
}

type fileField struct {
	Name  string `toml:"name"`
	Tag   int    `toml:"tag"`
	Type  string `toml:"type"`
	Width int    `toml:"width"`
}

type fileGroup struct {
	Name    string   `toml:"name"`
	Tag     int      `toml:"tag"`
	Members []string `toml:"members"`
}

type fileMessage struct {
	Name    string   `toml:"name"`
	MsgType string   `toml:"msg_type"`
	Members []string `toml:"members"`
}

// LoadFile reads a TOML dictionary from path.
func LoadFile(path string) (*Dictionary, error) {
	var raw fileDictionary
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return build(raw, meta)
}

// Load parses a TOML dictionary document.
func Load(data string) (*Dictionary, error) {
	var raw fileDictionary
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	return build(raw, meta)
}

func build(raw fileDictionary, meta toml.MetaData) (*Dictionary, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUndecodedKey, undecoded[0].String())
	}
	r := resolver{
		fields:   make(map[string]fileField, len(raw.Fields)),
		groups:   make(map[string]fileGroup, len(raw.Groups)),
		resolved: make(map[string]*schema.MessageDef),
		active:   make(map[string]bool),
	}
	for _, f := range raw.Fields {
		r.fields[strings.TrimSpace(f.Name)] = f
	}
	for _, g := range raw.Groups {
		r.groups[strings.TrimSpace(g.Name)] = g
	}

	header, err := r.define("Header", raw.Header)
	if err != nil {
		return nil, err
	}
	trailer, err := r.define("Trailer", raw.Trailer)
	if err != nil {
		return nil, err
	}
	d := &Dictionary{
		Name:    raw.Name,
		Header:  header,
		Trailer: trailer,
		bodies:  make(map[string]*schema.MessageDef, len(raw.Messages)),
	}
	for _, m := range raw.Messages {
		def, err := r.define(m.Name, m.Members)
		if err != nil {
			return nil, err
		}
		msgType := strings.TrimSpace(m.MsgType)
		if msgType == "" {
			return nil, fmt.Errorf("dict: message %s has no msg_type", m.Name)
		}
		if _, dup := d.bodies[msgType]; dup {
			return nil, fmt.Errorf("dict: msg_type %q registered twice", msgType)
		}
		d.bodies[msgType] = def
	}
	log.Info().Str("dictionary", d.Name).Int("messages", len(d.bodies)).Msg("dict.Load ok")
	return d, nil
}

type resolver struct {
	fields   map[string]fileField
	groups   map[string]fileGroup
	resolved map[string]*schema.MessageDef
	active   map[string]bool
}

func (r *resolver) define(name string, members []string) (*schema.MessageDef, error) {
	out := make([]schema.Member, 0, len(members))
	for _, raw := range members {
		m, err := r.member(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", name, err)
		}
		out = append(out, m)
	}
	def, err := schema.Define(name, out...)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("schema", name).Int("members", def.Len()).Msg("dict.Load defined")
	return def, nil
}

func (r *resolver) member(name string) (schema.Member, error) {
	if f, ok := r.fields[name]; ok {
		kind, ok := value.ParseKind(strings.ToLower(strings.TrimSpace(f.Type)))
		if !ok || kind == value.KindGroup {
			return schema.Member{}, fmt.Errorf("field %s: unsupported type %q", name, f.Type)
		}
		return schema.Member{Tag: f.Tag, Name: name, Kind: kind, Width: f.Width}, nil
	}
	g, ok := r.groups[name]
	if !ok {
		return schema.Member{}, fmt.Errorf("%w: %s", ErrUnknownMember, name)
	}
	if elem, ok := r.resolved[name]; ok {
		return schema.Group(g.Tag, name, elem), nil
	}
	if r.active[name] {
		return schema.Member{}, fmt.Errorf("%w: %s", ErrGroupCycle, name)
	}
	r.active[name] = true
	elem, err := r.define(name, g.Members)
	delete(r.active, name)
	if err != nil {
		return schema.Member{}, err
	}
	r.resolved[name] = elem
	return schema.Group(g.Tag, name, elem), nil
}
