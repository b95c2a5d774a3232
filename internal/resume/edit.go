package resume

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrItemNotFound 表示要删除的条目不存在。
var ErrItemNotFound = errors.New("item not found")

// RemoveItem 按 ID 删除区块中的条目，保持其余条目的顺序。
func (d *Data) RemoveItem(s Section, id string) error {
	removed := false
	switch s {
	case SectionExperiences:
		d.Experiences, removed = removeByID(d.Experiences, id, func(e Experience) string { return e.ID })
	case SectionEducation:
		d.Education, removed = removeByID(d.Education, id, func(e Education) string { return e.ID })
	case SectionCourses:
		d.Courses, removed = removeByID(d.Courses, id, func(c Course) string { return c.ID })
	case SectionLanguages:
		d.Languages, removed = removeByID(d.Languages, id, func(l Language) string { return l.ID })
	default:
		return fmt.Errorf("section %s has no removable items", s)
	}
	if !removed {
		return fmt.Errorf("%w: %s/%s", ErrItemNotFound, s, id)
	}
	return nil
}

func removeByID[T any](items []T, id string, key func(T) string) ([]T, bool) {
	out := make([]T, 0, len(items))
	removed := false
	for _, it := range items {
		if key(it) == id {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, removed
}

var nonDigits = regexp.MustCompile(`\D`)

// FormatPhone 将输入格式化为 (11) 9 8765-4321 形式，最多 11 位数字。
func FormatPhone(value string) string {
	v := nonDigits.ReplaceAllString(value, "")
	if len(v) > 11 {
		v = v[:11]
	}
	switch {
	case len(v) > 10:
		return fmt.Sprintf("(%s) %s %s-%s", v[:2], v[2:3], v[3:7], v[7:])
	case len(v) > 6:
		return fmt.Sprintf("(%s) %s-%s", v[:2], v[2:6], v[6:])
	case len(v) > 2:
		return fmt.Sprintf("(%s) %s", v[:2], v[2:])
	case len(v) > 0:
		return "(" + v
	}
	return ""
}

// WhatsAppLink 由电话号码生成 wa.me 链接；号码不足 10 位时返回空串。
func WhatsAppLink(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) < 10 {
		return ""
	}
	return "https://wa.me/55" + digits
}

// FileName 返回导出 PDF 的文件名。
func (d *Data) FileName() string {
	name := strings.Join(strings.Fields(d.PersonalInfo.Name), "_")
	if name == "" {
		name = "curriculo"
	}
	return name + ".pdf"
}
