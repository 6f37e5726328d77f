package script

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/justyntemme/plughost/pkg/adapter"
)

// Section names a code section of a script.
type Section string

const (
	SectionInit      Section = "init"
	SectionSlider    Section = "slider"
	SectionBlock     Section = "block"
	SectionSample    Section = "sample"
	SectionSerialize Section = "serialize"
	SectionGfx       Section = "gfx"
)

var knownSections = map[Section]bool{
	SectionInit:      true,
	SectionSlider:    true,
	SectionBlock:     true,
	SectionSample:    true,
	SectionSerialize: true,
	SectionGfx:       true,
}

// SliderDef is one parsed sliderN: line.
type SliderDef struct {
	Index     int // zero based
	Var       string
	Def       float64
	Min       float64
	Max       float64
	Step      float64
	EnumNames []string
	Label     string
	Hidden    bool
}

// Script is the parsed form of a script file.
type Script struct {
	Desc    string
	Author  string
	Tags    []string
	Options []string
	Imports []string

	InPins       []string
	OutPins      []string
	inPinsGiven  bool
	outPinsGiven bool

	Sliders  [adapter.MaxSlotCapacity]*SliderDef
	Sections map[Section]string

	// Problems are reported by Compile rather than failing the load.
	Problems []string
}

var (
	sliderLine = regexp.MustCompile(`^slider([0-9]+):(.*)$`)
	varPrefix  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)=`)
)

// Parse reads a script. Only I/O errors are returned; malformed lines are
// collected as Problems.
func Parse(r io.Reader) (*Script, error) {
	s := &Script{Sections: make(map[Section]string)}

	var (
		current Section
		body    strings.Builder
		lineNo  int
	)
	flush := func() {
		if current != "" {
			s.Sections[current] += body.String()
		}
		body.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		if strings.HasPrefix(line, "@") {
			flush()
			name := strings.Fields(line[1:])
			if len(name) == 0 {
				s.Problems = append(s.Problems, fmt.Sprintf("line %d: empty section name", lineNo))
				current = ""
				continue
			}
			current = Section(name[0])
			if !knownSections[current] {
				s.Problems = append(s.Problems, fmt.Sprintf("line %d: unknown section @%s", lineNo, current))
			}
			continue
		}

		if current != "" {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}

		s.parseHeaderLine(strings.TrimSpace(line), lineNo)
	}
	flush()

	if err := sc.Err(); err != nil {
		return nil, err
	}

	if !s.inPinsGiven {
		s.InPins = []string{"", ""}
	}
	if !s.outPinsGiven {
		s.OutPins = []string{"", ""}
	}
	return s, nil
}

func (s *Script) parseHeaderLine(line string, lineNo int) {
	if line == "" || strings.HasPrefix(line, "//") {
		return
	}

	if m := sliderLine.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > adapter.MaxSlotCapacity {
			s.Problems = append(s.Problems, fmt.Sprintf("line %d: slider index %s out of range", lineNo, m[1]))
			return
		}
		def, err := parseSlider(m[2])
		if err != nil {
			s.Problems = append(s.Problems, fmt.Sprintf("line %d: %v", lineNo, err))
			return
		}
		def.Index = n - 1
		s.Sliders[n-1] = def
		return
	}

	if rest, ok := strings.CutPrefix(line, "import "); ok {
		s.Imports = append(s.Imports, strings.TrimSpace(rest))
		return
	}

	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	value = strings.TrimSpace(value)

	switch key {
	case "desc":
		s.Desc = value
	case "author":
		s.Author = value
	case "tags":
		s.Tags = append(s.Tags, strings.Fields(value)...)
	case "options":
		s.Options = append(s.Options, strings.Fields(value)...)
	case "in_pin":
		s.inPinsGiven = true
		if value != "none" {
			s.InPins = append(s.InPins, value)
		}
	case "out_pin":
		s.outPinsGiven = true
		if value != "none" {
			s.OutPins = append(s.OutPins, value)
		}
	}
}

// parseSlider parses "[var=]def<min,max,step{a,b}>[-]Label".
func parseSlider(body string) (*SliderDef, error) {
	def := &SliderDef{Max: 1}

	if m := varPrefix.FindStringSubmatch(body); m != nil {
		def.Var = m[1]
		body = body[len(m[0]):]
	}

	open := strings.IndexByte(body, '<')
	closing := strings.IndexByte(body, '>')
	if open < 0 || closing < open {
		return nil, fmt.Errorf("slider %q has no range", body)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(body[:open]), 64)
	if err != nil {
		return nil, fmt.Errorf("slider default %q: %w", body[:open], err)
	}
	def.Def = v

	spec := body[open+1 : closing]
	if i := strings.IndexByte(spec, '{'); i >= 0 {
		end := strings.IndexByte(spec, '}')
		if end < i {
			return nil, fmt.Errorf("unterminated enum in %q", spec)
		}
		for _, name := range strings.Split(spec[i+1:end], ",") {
			def.EnumNames = append(def.EnumNames, strings.TrimSpace(name))
		}
		spec = spec[:i]
	}

	parts := strings.Split(spec, ",")
	nums := make([]float64, 0, 3)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("slider range %q: %w", spec, err)
		}
		nums = append(nums, n)
	}
	if len(nums) < 2 {
		return nil, fmt.Errorf("slider range %q needs min and max", spec)
	}
	def.Min, def.Max = nums[0], nums[1]
	if len(nums) > 2 {
		def.Step = nums[2]
	}

	label := strings.TrimSpace(body[closing+1:])
	if strings.HasPrefix(label, "-") {
		def.Hidden = true
		label = label[1:]
	}
	def.Label = label

	return def, nil
}
