// Command pager 在命令行中分页、测量或导出一份简历，不依赖数据库与队列。
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
