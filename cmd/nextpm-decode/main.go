// nextpm-decode 解码 NextPM 十六进制帧
//
//	nextpm-decode 81 16 00 69
//	echo "0x81 0x17 0x00 0x7B 0x00 0xF0 0x01 0x2C 0xD0" | nextpm-decode -json
package main

import (
	"os"

	"github.com/taoyao-code/nextpm-decoder/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
