// Command lint runs the formatting, vet and lint steps used before a release.
//
//	go -C tools run ./lint -dir ..
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
)

type step struct {
	name string
	cmd  string
	args []string
}

var steps = []step{
	{"gofmt", "go", []string{"fmt", "./..."}},
	{"vet", "go", []string{"vet", "./..."}},
	{"tests (race)", "go", []string{"test", "-race", "-count=1", "./..."}},
	{"golangci-lint", "golangci-lint", []string{"run", "./..."}},
	{"install staticcheck", "go", []string{"install", "honnef.co/go/tools/cmd/staticcheck@latest"}},
	{"staticcheck", "staticcheck", []string{"./..."}},
	{"install gofumpt", "go", []string{"install", "mvdan.cc/gofumpt@latest"}},
	{"gofumpt", "gofumpt", []string{"-l", "-w", "."}},
}

func run(dir string, s step) error {
	command := exec.Command(s.cmd, s.args...)
	command.Dir = dir
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	if err := command.Run(); err != nil {
		return fmt.Errorf("%s: %s %v: %w", s.name, s.cmd, s.args, err)
	}
	return nil
}

func main() {
	dir := flag.String("dir", ".", "module root to check")
	flag.Parse()

	failed := 0
	for _, s := range steps {
		fmt.Printf("Running %s...\n", s.name)
		if err := run(*dir, s); err != nil {
			fmt.Println(err)
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("%d of %d checks failed\n", failed, len(steps))
		os.Exit(1)
	}
	fmt.Println("All checks completed!")
}
