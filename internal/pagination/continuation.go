package pagination

import (
	"errors"
	"fmt"
)

// ErrBrokenContinuation 表示一组窗口无法拼回完整的块。
var ErrBrokenContinuation = errors.New("broken continuation")

// Split 在 room 处切开高度为 blockHeight 的块，返回前后两页的互补窗口。
func Split(blockHeight, room float64) (head, tail Window) {
	if room > blockHeight {
		room = blockHeight
	}
	if room < 0 {
		room = 0
	}
	return Window{Offset: 0, TotalHeight: room}, Window{Offset: room, TotalHeight: blockHeight}
}

// Stitch 校验按页序排列的窗口从 0 开始、首尾相接、止于 blockHeight。
func Stitch(blockHeight float64, windows []Window) error {
	if len(windows) == 0 {
		return fmt.Errorf("%w: no windows", ErrBrokenContinuation)
	}
	next := 0.0
	for i, w := range windows {
		if w.Offset != next {
			return fmt.Errorf("%w: window %d starts at %.2f, want %.2f", ErrBrokenContinuation, i, w.Offset, next)
		}
		if w.TotalHeight <= w.Offset {
			return fmt.Errorf("%w: window %d is empty", ErrBrokenContinuation, i)
		}
		next = w.TotalHeight
	}
	if next != blockHeight {
		return fmt.Errorf("%w: windows end at %.2f, block is %.2f", ErrBrokenContinuation, next, blockHeight)
	}
	return nil
}
