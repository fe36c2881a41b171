// fixctl frames sample messages and decodes or verifies framed streams.
package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/fixwire/internal/logging"
	"github.com/danmuck/fixwire/internal/protocol/dict"
	"github.com/danmuck/fixwire/internal/protocol/frame"
	"github.com/danmuck/fixwire/internal/protocol/message"
	"github.com/danmuck/fixwire/internal/protocol/value"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const usage = `usage: fixctl <command> [flags] [file]

commands:
  sample   frame a builtin sample message and write it to stdout
  decode   decode framed messages from file or stdin
  verify   check body length and checksum of framed messages

run "fixctl <command> --help" for command flags
`

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fixctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "sample":
		return runSample(rest, stdout)
	case "decode":
		return runDecode(rest, stdin, stdout)
	case "verify":
		return runVerify(rest, stdin, stdout)
	case "help", "-h", "--help":
		_, err := fmt.Fprint(stdout, usage)
		return err
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

type commonFlags struct {
	configPath string
	logLevel   string
}

func newFlagSet(name string, common *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("fixctl "+name, pflag.ContinueOnError)
	fs.StringVarP(&common.configPath, "config", "c", "", "path to a fixctl TOML config")
	fs.StringVar(&common.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	return fs
}

// parse reports done=true when help was requested.
func parse(fs *pflag.FlagSet, args []string) (done bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (c commonFlags) resolve() (cliConfig, error) {
	if c.logLevel != "" && !logging.SetLevel(c.logLevel) {
		return cliConfig{}, fmt.Errorf("unknown log level %q", c.logLevel)
	}
	if c.configPath == "" {
		return defaultConfig(), nil
	}
	return loadConfig(c.configPath)
}

func runSample(args []string, stdout io.Writer) error {
	var (
		common  commonFlags
		msgName string
		seq     int64
		display bool
	)
	fs := newFlagSet("sample", &common)
	fs.StringVarP(&msgName, "msg", "m", "nos", "sample message: nos | logon | nested")
	fs.Int64Var(&seq, "seq", 1, "MsgSeqNum of the sample")
	fs.BoolVar(&display, "display", false, "print with the display delimiter and a trailing newline")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	cfg, err := common.resolve()
	if err != nil {
		return err
	}

	msgType, body, err := sampleBody(msgName)
	if err != nil {
		return err
	}
	header := message.New(dict.Header).
		SetString(dict.TagBeginString, cfg.BeginString).
		SetString(dict.TagMsgType, msgType).
		SetString(dict.TagSenderCompID, "FIXWIRE").
		SetString(dict.TagTargetCompID, "SAMPLE").
		SetInt(dict.TagMsgSeqNum, seq)

	framer, err := cfg.framer(dict.Builtin())
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := frame.NewEncoder(&out, framer, cfg.BufferSize).Encode(header, body, message.New(dict.Trailer)); err != nil {
		return fmt.Errorf("frame %s: %w", body.Def().Name(), err)
	}
	log.Debug().Str("msg", msgName).Int("bytes", out.Len()).Msg("fixctl sample framed")

	if display {
		_, err = fmt.Fprintln(stdout, value.Display(out.Bytes(), cfg.Delimiter, cfg.DisplayDelimiter))
		return err
	}
	_, err = stdout.Write(out.Bytes())
	return err
}

func sampleBody(name string) (string, *message.Message, error) {
	switch name {
	case "nos":
		nos := message.New(dict.NewOrderSingle).
			SetString(dict.TagClOrdID, "123ABC").
			SetString(dict.TagAccount, "ololo//OLOLO").
			SetFloat(dict.TagPrice, 66.6625).
			SetChar(dict.TagSide, '2')
		parties := nos.Group(dict.TagNoPartyIDs)
		parties.Append().SetString(dict.TagPartyID, "USER").SetChar(dict.TagPartyIDSource, 'X').SetInt(dict.TagPartyRole, 12)
		parties.Append().SetString(dict.TagPartyID, "FIRM").SetChar(dict.TagPartyIDSource, 'Y')
		parties.Append().SetString(dict.TagPartyID, "KGB")
		return dict.MsgTypeNewOrderSingle, nos, nil
	case "logon":
		logon := message.New(dict.Logon).
			SetInt(dict.TagEncryptMethod, 0).
			SetInt(dict.TagHeartBtInt, 30).
			SetString(dict.TagPassword, "PSSWD")
		return dict.MsgTypeLogon, logon, nil
	case "nested":
		batch := message.New(dict.NestedGroupsOrder).
			SetString(dict.TagAccount, "Nested!").
			SetString(dict.TagPassword, "PSSWD")
		orders := batch.Group(dict.TagNoOrders)
		for _, id := range []string{"aaa", "bbb", "ccc"} {
			parties := orders.Append().SetString(dict.TagClOrdID, id).Group(dict.TagNoPartyIDs)
			for _, p := range []string{"YOU", "ME", "KGB"} {
				parties.Append().SetString(dict.TagPartyID, p).SetInt(dict.TagPartyRole, 0)
			}
		}
		return dict.MsgTypeNestedOrders, batch, nil
	default:
		return "", nil, fmt.Errorf("unknown sample %q (supported: nos, logon, nested)", name)
	}
}

func runDecode(args []string, stdin io.Reader, stdout io.Writer) error {
	var common commonFlags
	fs := newFlagSet("decode", &common)
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	cfg, err := common.resolve()
	if err != nil {
		return err
	}
	in, closeInput, err := openInput(fs.Args(), stdin)
	if err != nil {
		return err
	}
	defer closeInput()

	d, err := cfg.dictionary()
	if err != nil {
		return err
	}
	framer, err := cfg.framer(d)
	if err != nil {
		return err
	}
	dec := frame.NewDecoder(in, framer, cfg.limits())
	pick := frame.ByMsgType(d.MsgTypeTag(), d.Body)

	for n := 0; ; n++ {
		header, trailer := message.New(d.Header), message.New(d.Trailer)
		body, err := dec.Decode(header, trailer, pick)
		if errors.Is(err, io.EOF) {
			log.Info().Int("frames", n).Str("dictionary", d.Name).Msg("fixctl decode done")
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if _, err := fmt.Fprintf(stdout, "# frame %d %s\n", n, body.Def().Name()); err != nil {
			return err
		}
		for _, m := range []*message.Message{header, body, trailer} {
			if err := m.Dump(stdout); err != nil {
				return err
			}
		}
	}
}

func runVerify(args []string, stdin io.Reader, stdout io.Writer) error {
	var common commonFlags
	fs := newFlagSet("verify", &common)
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	cfg, err := common.resolve()
	if err != nil {
		return err
	}
	in, closeInput, err := openInput(fs.Args(), stdin)
	if err != nil {
		return err
	}
	defer closeInput()

	d, err := cfg.dictionary()
	if err != nil {
		return err
	}
	framer, err := cfg.framer(d)
	if err != nil {
		return err
	}

	br := bufio.NewReader(in)
	limits := cfg.limits()
	failed := 0
	for n := 0; ; n++ {
		raw, err := framer.ReadFrame(br, limits)
		if errors.Is(err, io.EOF) {
			log.Info().Int("frames", n).Int("failed", failed).Msg("fixctl verify done")
			break
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		info, err := framer.Verify(raw)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "frame %d: FAIL %v\n", n, err)
			continue
		}
		fmt.Fprintf(stdout, "frame %d: ok begin=%s body_length=%d checksum=%03d\n", n, info.BeginString, info.BodyLength, info.CheckSum)
	}
	if failed > 0 {
		return fmt.Errorf("%d frame(s) failed verification", failed)
	}
	return nil
}

func openInput(args []string, stdin io.Reader) (io.Reader, func(), error) {
	switch {
	case len(args) == 0 || (len(args) == 1 && args[0] == "-"):
		return stdin, func() {}, nil
	case len(args) == 1:
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("expected at most one input file, got %d", len(args))
	}
}
