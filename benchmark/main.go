// Package main provides a performance benchmarking tool for the Cohort CLI.
// It generates synthetic query executions for networks of increasing size,
// imports them into a fresh SQLite store and measures report times per family,
// treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - cohort binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated fixtures and the benchmark store
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Network  string
	Family   string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir    string
	Timeout    time.Duration
	Runs       int
	Executions int
	GroupSize  int
	Networks   map[string]int // label -> clinician count
	Order      []string
	Families   []string
}

// benchmarkStart is the first execution time of every generated query (2015-01-01 UTC).
const benchmarkStart = int64(1420070400)

var ageRanges = []string{"0-9", "10-19", "20-29", "30-39", "40-49", "50-59", "60-69", "70-79", "80-89", "90+"}

var drugCodes = []string{"02242963", "02247655", "02231492", "02246001", "02248213"}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:    os.Args[1],
		Timeout:    2 * time.Minute,
		Runs:       5,
		Executions: 12,
		GroupSize:  10,
		Networks:   map[string]int{"small": 50, "medium": 500, "large": 5000},
		Order:      []string{"small", "medium", "large"},
		Families:   []string{"ratio", "demographic", "medclass"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the cohort binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("cohort"); err != nil {
		return fmt.Errorf("cohort binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// runBenchmarks generates fixtures per network size and times every family
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d networks, %d executions, %v timeout, %d runs\n",
		len(config.Networks), config.Executions, config.Timeout, config.Runs)

	for _, network := range config.Order {
		clinicians := config.Networks[network]
		fmt.Printf("Benchmarking %s network (%d clinicians)\n", network, clinicians)

		dir := filepath.Join(config.WorkDir, network)
		env, err := prepareNetwork(config, dir, clinicians)
		if err != nil {
			fmt.Printf("  Warning: cannot prepare %s network: %v\n", network, err)
			continue
		}

		for _, family := range config.Families {
			results = append(results, runBenchmarkSuite(config, network, family, dir, env))
		}
	}

	return results
}

// prepareNetwork writes groups, class table and executions, then imports them.
func prepareNetwork(config BenchmarkConfig, dir string, clinicians int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	env := []string{
		"COHORT_STORE_BACKEND=sqlite",
		"COHORT_STORE_DB_CONNECT=" + filepath.Join(dir, "executions.db"),
		"COHORT_CLASS_CACHE_BACKEND=none",
		"COHORT_GROUPS_FILE=" + filepath.Join(dir, "groups.yaml"),
		"COHORT_CLASSES_FILE=" + filepath.Join(dir, "classes.yaml"),
	}

	// Start from an empty store
	if output, err := runCohort(env, "executions", "clear"); err != nil {
		return nil, fmt.Errorf("clear failed: %w\nOutput: %s", err, output)
	}

	if err := os.WriteFile(filepath.Join(dir, "groups.yaml"), []byte(groupsYAML(clinicians, config.GroupSize)), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "classes.yaml"), []byte(classesYAML()), 0o644); err != nil {
		return nil, err
	}

	for _, family := range config.Families {
		path := filepath.Join(dir, family+".json")
		if err := writeExecutions(path, queryTitle(family), family, clinicians, config.Executions); err != nil {
			return nil, err
		}
		if output, err := runCohort(env, "executions", "import", path); err != nil {
			return nil, fmt.Errorf("import of %s failed: %w\nOutput: %s", family, err, output)
		}
	}
	return env, nil
}

func queryTitle(family string) string {
	return "BENCH-" + strings.ToUpper(family)
}

func clinicianID(i int) string {
	return fmt.Sprintf("cps%05d", i)
}

func groupsYAML(clinicians, groupSize int) string {
	var sb strings.Builder
	sb.WriteString("groups:\n")
	for start := 0; start < clinicians; start += groupSize {
		fmt.Fprintf(&sb, "  - name: group%d\n    initiative: bench\n    members: [", start/groupSize)
		for i := start; i < min(start+groupSize, clinicians); i++ {
			if i > start {
				sb.WriteString(", ")
			}
			sb.WriteString(clinicianID(i))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

func classesYAML() string {
	var sb strings.Builder
	sb.WriteString("hc-din:\n")
	for i, code := range drugCodes {
		fmt.Fprintf(&sb, "  %q: class%d\n", code, i%3)
	}
	return sb.String()
}

// writeExecutions writes a document of monthly executions with deterministic counters.
func writeExecutions(path, title, family string, clinicians, executions int) error {
	type execution struct {
		Time     int64          `json:"time"`
		Counters map[string]int `json:"counters"`
	}
	doc := struct {
		Title      string      `json:"title"`
		Executions []execution `json:"executions"`
	}{Title: title}

	for e := range executions {
		counters := make(map[string]int)
		for c := range clinicians {
			id := clinicianID(c)
			base := (c*7 + e*3) % 40
			switch family {
			case "ratio":
				counters["numerator_"+id] = base + 5
				counters["denominator_"+id] = base + 20
			case "demographic":
				for a, label := range ageRanges {
					counters[fmt.Sprintf("female_%s_%s", label, id)] = (base + a) % 15
					counters[fmt.Sprintf("male_%s_%s", label, id)] = (base + 2*a) % 15
				}
			case "medclass":
				for d, code := range drugCodes {
					counters[fmt.Sprintf("%s_hc-din_%s", code, id)] = (base + d*4) % 25
				}
			}
		}
		doc.Executions = append(doc.Executions, execution{
			Time:     benchmarkStart + int64(e)*30*86400 + 3600,
			Counters: counters,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// runBenchmarkSuite times one family report on one network
func runBenchmarkSuite(config BenchmarkConfig, network, family, dir string, env []string) BenchmarkResult {
	fmt.Printf("  Running %s report on %s network\n", family, network)

	args := []string{
		"report", "--requester", clinicianID(0), "--query", queryTitle(family),
		"--family", family, "--initiative", "bench", "--output", "csv",
		"--output-file", filepath.Join(dir, family+".csv"),
	}
	cold, warm := runBenchmark(config, env, args)

	coldTime := "TIMEOUT"
	if cold > 0 {
		coldTime = fmt.Sprintf("%.3fs", cold)
	}
	warmAvg := "TIMEOUT"
	if len(warm) > 0 {
		var sum float64
		for _, t := range warm {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(warm)))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTime, warmAvg)

	return BenchmarkResult{
		Network:  network,
		Family:   family,
		ColdTime: coldTime,
		WarmTime: warmAvg,
	}
}

// runBenchmark executes a cohort command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, env, args []string) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("cohort", args...)
		cmd.Env = append(os.Environ(), env...)

		done := make(chan error, 1)
		go func() {
			_, err := cmd.CombinedOutput()
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func runCohort(env []string, args ...string) ([]byte, error) {
	cmd := exec.Command("cohort", args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/cohort_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"network", "family", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Network, result.Family, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, family := range config.Families {
		fmt.Printf("%s reports:\n", family)
		for _, result := range results {
			if result.Family == family {
				fmt.Printf("  %-8s: Cold: %s, Warm: %s\n", result.Network, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
