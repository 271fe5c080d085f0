package cli

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
)

// 退出码
const (
	ExitOK     = 0
	ExitDecode = 1
	ExitUsage  = 2
)

type options struct {
	strict     bool
	schemaFile string
	statusFile string
	asJSON     bool
}

// Run 执行 nextpm-decode；参数为空时逐行读取 stdin
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nextpm-decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.BoolVar(&opts.strict, "strict", false, "拒绝非十六进制字符（默认丢弃）")
	fs.StringVar(&opts.schemaFile, "schemas", "", "扩展 schema 文件（YAML）")
	fs.StringVar(&opts.statusFile, "status", "", "状态位定义文件（YAML）")
	fs.BoolVar(&opts.asJSON, "json", false, "以 JSON 输出")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: nextpm-decode [-strict] [-schemas file] [-status file] [-json] [hex ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitOK
		}
		return ExitUsage
	}

	dec, err := buildDecoder(opts)
	if err != nil {
		fmt.Fprintln(stderr, newStyles(stderr).renderError("", err))
		return ExitUsage
	}

	var inputs []string
	if fs.NArg() > 0 {
		inputs = []string{strings.Join(fs.Args(), " ")}
	} else {
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := sc.Err(); err != nil {
			fmt.Fprintln(stderr, newStyles(stderr).renderError("", err))
			return ExitUsage
		}
	}
	if len(inputs) == 0 {
		fs.Usage()
		return ExitUsage
	}

	normalize := nextpm.NormalizeHex
	if opts.strict {
		normalize = nextpm.NormalizeHexStrict
	}

	outStyles, errStyles := newStyles(stdout), newStyles(stderr)
	code := ExitOK
	for i, in := range inputs {
		fr, err := decodeText(dec, normalize, in)
		if err != nil {
			code = ExitDecode
			if opts.asJSON {
				writeJSON(stdout, errorJSON(in, err))
			} else {
				fmt.Fprintln(stderr, errStyles.renderError(in, err))
			}
			continue
		}
		if opts.asJSON {
			writeJSON(stdout, frameJSON(fr))
			continue
		}
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintln(stdout, outStyles.renderFrame(fr))
	}
	return code
}

func buildDecoder(opts options) (*nextpm.Decoder, error) {
	reg := nextpm.DefaultRegistry()
	if opts.schemaFile != "" {
		extra, err := nextpm.LoadSchemaFile(opts.schemaFile)
		if err != nil {
			return nil, err
		}
		if reg, err = nextpm.ExtendRegistry(reg, extra...); err != nil {
			return nil, err
		}
	}
	var status *nextpm.StatusInterpreter
	if opts.statusFile != "" {
		bits, err := nextpm.LoadStatusBits(opts.statusFile)
		if err != nil {
			return nil, err
		}
		if status, err = nextpm.NewStatusInterpreter(bits...); err != nil {
			return nil, err
		}
	}
	return nextpm.NewDecoder(reg, status), nil
}

func decodeText(dec *nextpm.Decoder, normalize func(string) ([]byte, error), text string) (*nextpm.Frame, error) {
	raw, err := normalize(text)
	if err != nil {
		return nil, err
	}
	return dec.Decode(raw)
}

type fieldOut struct {
	Name  string       `json:"name"`
	Raw   uint16       `json:"raw"`
	Value nextpm.Value `json:"value"`
}

type frameOut struct {
	OK       bool                 `json:"ok"`
	Command  string               `json:"command"`
	SchemaID string               `json:"schema_id"`
	Fields   []fieldOut           `json:"fields"`
	Status   *nextpm.StatusReport `json:"status,omitempty"`
	Checksum string               `json:"checksum"`
	Hex      string               `json:"hex"`
}

type errorOut struct {
	OK      bool   `json:"ok"`
	Input   string `json:"input"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func frameJSON(fr *nextpm.Frame) frameOut {
	out := frameOut{
		OK:       true,
		Command:  fmt.Sprintf("0x%02x", fr.Command),
		SchemaID: fr.Schema.ID,
		Fields:   make([]fieldOut, 0, len(fr.Fields)),
		Status:   fr.Status,
		Checksum: fmt.Sprintf("0x%02x", fr.Checksum),
		Hex:      nextpm.FormatHex(fr.Raw),
	}
	for _, f := range fr.Fields {
		out.Fields = append(out.Fields, fieldOut{Name: f.Name, Raw: f.Raw, Value: f.Value})
	}
	return out
}

func errorJSON(input string, err error) errorOut {
	kind := "error"
	if de, ok := nextpm.AsDecodeError(err); ok {
		kind = de.Kind.String()
	}
	return errorOut{Input: input, Error: kind, Message: err.Error()}
}

// writeJSON 每个结果一行（JSON Lines）
func writeJSON(w io.Writer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(w, "{\"ok\":false,\"error\":%q}\n", err.Error())
		return
	}
	fmt.Fprintln(w, string(b))
}
