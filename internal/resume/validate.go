package resume

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// MaxSkillsChars 是技能列表（以逗号连接）允许的最大字符数。
const MaxSkillsChars = 500

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// ErrInvalid 包装所有校验失败。
var ErrInvalid = errors.New("invalid resume data")

// Validate 校验已解码的数据。
func (d *Data) Validate() error {
	if err := validateSchema(gojsonschema.NewGoLoader(d)); err != nil {
		return err
	}

	if n := utf8.RuneCountInString(strings.Join(d.Skills, ", ")); n > MaxSkillsChars {
		return fmt.Errorf("%w: skills exceed %d characters (%d)", ErrInvalid, MaxSkillsChars, n)
	}

	for _, spec := range Sections {
		seen := make(map[string]struct{})
		for _, id := range d.ItemIDs(spec.Section) {
			if _, ok := seen[id]; ok {
				return fmt.Errorf("%w: duplicate %s item id %q", ErrInvalid, spec.Key, id)
			}
			seen[id] = struct{}{}
		}
	}
	return nil
}

func validateSchema(doc gojsonschema.JSONLoader) error {
	res, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
