package ui

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/delivery"
	"github.com/forest-guardian/water-guardian-cli/internal/sentinel"
)

// Colors for consistent UI
const (
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorReset  = "\033[0m"
)

var stdin = bufio.NewReader(os.Stdin)

// PrintWarning displays a warning message with consistent formatting
func PrintWarning(message string) {
	fmt.Printf("%s\nWarning:%s\n", ColorYellow, ColorReset)
	fmt.Printf("%s%s%s\n", ColorYellow, message, ColorReset)
}

// PrintError displays an error message with consistent formatting
func PrintError(message string) {
	fmt.Printf("\n%sError: %s%s\n", ColorRed, message, ColorReset)
}

// PrintSuccess displays a success message with consistent formatting
func PrintSuccess(message string) {
	fmt.Printf("\n%s%s%s\n", ColorGreen, message, ColorReset)
}

// PrintInfo displays an info message with consistent formatting
func PrintInfo(message string) {
	fmt.Printf("%s%s%s", ColorBlue, message, ColorReset)
}

func printList(title string, items []string) {
	fmt.Printf("\n%s%s:%s\n", ColorGreen, title, ColorReset)
	for _, item := range items {
		fmt.Printf("%s- %s%s\n", ColorGreen, item, ColorReset)
	}
}

// ReadString reads a string from stdin with trimming
func ReadString(prompt string) string {
	PrintInfo(prompt)
	input, _ := stdin.ReadString('\n')
	return strings.TrimSpace(input)
}

// ReadInt reads an integer from stdin with validation
func ReadInt(prompt string, min, max int) (int, error) {
	input := ReadString(prompt)
	value, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}
	return value, nil
}

// ReadDate reads a date from stdin with validation
func ReadDate(prompt string) (time.Time, error) {
	input := ReadString(prompt)
	if input == "today" {
		return time.Now().UTC(), nil
	}
	date, err := time.Parse(sentinel.DateLayout, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s. Please use YYYY-MM-DD", input)
	}
	return date, nil
}

// ReadPositiveInt reads a positive integer from stdin
func ReadPositiveInt(prompt string) (int, error) {
	input := ReadString(prompt)
	value, err := strconv.Atoi(input)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid number: %s. Please enter a positive integer", input)
	}
	return value, nil
}

// ReadTimeInterval reads an end date and a number of days before it
func ReadTimeInterval() (sentinel.TimeInterval, error) {
	endDate, err := ReadDate("Enter the end date (YYYY-MM-DD | today): ")
	if err != nil {
		return sentinel.TimeInterval{}, err
	}
	days, err := ReadPositiveInt("Enter number of days: ")
	if err != nil {
		return sentinel.TimeInterval{}, err
	}
	return sentinel.NewTimeInterval(endDate.AddDate(0, 0, -days), endDate)
}

// ReadRegion lists the areas and their regions and reads the selection
func (m *menu) ReadRegion() (delivery.Region, error) {
	m.ListAreas()
	area := ReadString("Enter the area name: ")
	if area == "" {
		return delivery.Region{}, fmt.Errorf("area name cannot be empty")
	}
	m.listRegions(area)
	id := ReadString("Enter the region id: ")
	if id == "" {
		return delivery.Region{}, fmt.Errorf("region id cannot be empty")
	}
	return delivery.Region{Area: area, ID: id}, nil
}
