//go:build ignore

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	task := os.Args[1]
	args := os.Args[2:]

	switch task {
	case "build":
		run("go", "build", "-o", "bin/minic", "./cmd/minic")
	case "test":
		run("go", "test", "-race", "./...")
	case "test-coverage":
		run("go", "test", "-coverprofile=coverage.out", "./...")
		run("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
	case "install":
		run("go", "install", "./cmd/minic")
	case "fmt":
		run("go", "fmt", "./...")
	case "lint":
		run("golangci-lint", "run")
	case "clean":
		clean()
	case "run":
		// Pass remaining args to the CLI
		cmd := exec.Command("go", append([]string{"run", "./cmd/minic"}, args...)...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
		if err := cmd.Run(); err != nil {
			os.Exit(1)
		}
	case "fixtures":
		// Every annotated line in testdata must receive a diagnostic
		if _, err := os.Stat("testdata"); os.IsNotExist(err) {
			fmt.Println("Error: testdata directory not found")
			os.Exit(1)
		}
		run("go", "run", "./cmd/minic", "verify", "testdata")
	case "spim":
		// Assemble every clean fixture into bin/spim for loading into SPIM
		spim()
	default:
		fmt.Printf("Unknown task: %s\n\n", task)
		printUsage()
		os.Exit(1)
	}
}

func run(command string, args ...string) {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("Error: Command failed: %s %v\n", command, args)
		os.Exit(1)
	}
}

func spim() {
	sources, err := filepath.Glob("testdata/*.c")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll("bin/spim", 0755); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil || strings.Contains(string(data), "// ERROR") {
			continue
		}
		out := filepath.Join("bin/spim", strings.TrimSuffix(filepath.Base(src), ".c")+".s")
		run("go", "run", "./cmd/minic", "mips", "--out", out, src)
		fmt.Printf("%s -> %s\n", src, out)
	}
}

func clean() {
	dirs := []string{"bin", "coverage.out", "coverage.html"}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			fmt.Printf("Warning: Failed to remove %s: %v\n", dir, err)
		}
	}
	fmt.Println("Cleaned build artifacts")
}

func printUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Printf("Usage: go run %s <task> [args...]\n\n", exe)
	fmt.Println("Available tasks:")
	fmt.Println("  build           - Build the minic binary")
	fmt.Println("  test            - Run all tests with the race detector")
	fmt.Println("  test-coverage   - Run tests with coverage report")
	fmt.Println("  fixtures        - Verify the annotated fixtures in testdata")
	fmt.Println("  spim            - Write MIPS assembly for the clean fixtures to bin/spim")
	fmt.Println("  install         - Install the binary to $GOPATH/bin")
	fmt.Println("  fmt             - Format code")
	fmt.Println("  lint            - Run linter (requires golangci-lint)")
	fmt.Println("  clean           - Remove build artifacts")
	fmt.Println("  run [args...]   - Run the CLI locally (passes args to CLI)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  go run %s build\n", exe)
	fmt.Printf("  go run %s fixtures\n", exe)
	fmt.Printf("  go run %s run check testdata/uninit.c\n", exe)
}
