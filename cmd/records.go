package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/rankmorph/internal/store"
	"github.com/spf13/cobra"
)

var (
	recordDataDir string
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage saved job records",
	Long: `Manage the job records a server persists on completion, including
listing them and cleaning up old ones. A record is a summary of one
completed kernel run (count, min, max, mean, and a bounded output sample);
it is not resumable state.`,
}

var listRecordsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved job records",
	Long:  `Display all job records with metadata including job ID, timestamp, kernel, and file sizes.`,
	RunE:  runListRecords,
}

var cleanRecordsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old job records",
	Long: `Delete old job records based on retention policy.
You can specify how many records to keep or delete records older than N days.`,
	RunE: runCleanRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.AddCommand(listRecordsCmd)
	recordsCmd.AddCommand(cleanRecordsCmd)

	recordsCmd.PersistentFlags().StringVar(&recordDataDir, "data-dir", "./data", "Base directory for job record storage")

	cleanRecordsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the last N records (0 = keep all)")
	cleanRecordsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete records older than N days (0 = no age limit)")
	cleanRecordsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListRecords(cmd *cobra.Command, args []string) error {
	recordStore, err := store.NewFSStore(recordDataDir)
	if err != nil {
		return fmt.Errorf("failed to create job record store: %w", err)
	}

	infos, err := recordStore.ListJobRecords()
	if err != nil {
		return fmt.Errorf("failed to list job records: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No job records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tTIMESTAMP\tKERNEL\tCOUNT\tSIZE")
	fmt.Fprintln(w, "------\t---------\t------\t-----\t----")

	for _, info := range infos {
		jobDir := filepath.Join(recordDataDir, "jobs", info.JobID)
		size, err := getDirSize(jobDir)
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		timestamp := info.Timestamp.Format("2006-01-02 15:04:05")

		displayID := info.JobID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			displayID,
			timestamp,
			info.Kernel,
			info.Count,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal records: %d\n", len(infos))
	return nil
}

func runCleanRecords(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	recordStore, err := store.NewFSStore(recordDataDir)
	if err != nil {
		return fmt.Errorf("failed to create job record store: %w", err)
	}

	infos, err := recordStore.ListJobRecords()
	if err != nil {
		return fmt.Errorf("failed to list job records: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No job records to clean.")
		return nil
	}

	toDelete := selectRecordsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No job records match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d job record(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		displayID := info.JobID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}
		fmt.Printf("  - %s (%s, %s)\n",
			displayID,
			info.Kernel,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		err := recordStore.DeleteJobRecord(info.JobID)
		if err != nil {
			slog.Error("Failed to delete job record", "job_id", info.JobID, "error", err)
			failed++
		} else {
			slog.Info("Deleted job record", "job_id", info.JobID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d job record(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRecordsForDeletion determines which job records should be deleted based on retention policy.
func selectRecordsForDeletion(infos []store.JobRecordInfo, keepLast int, olderThanDays int) []store.JobRecordInfo {
	var toDelete []store.JobRecordInfo

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.JobRecordInfo, len(infos))
		copy(sorted, infos)

		for i := 0; i < len(sorted)-1; i++ {
			for j := 0; j < len(sorted)-i-1; j++ {
				if sorted[j].Timestamp.After(sorted[j+1].Timestamp) {
					sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
				}
			}
		}

		numToDelete := len(sorted) - keepLast
		for i := 0; i < numToDelete; i++ {
			found := false
			for _, existing := range toDelete {
				if existing.JobID == sorted[i].JobID {
					found = true
					break
				}
			}
			if !found {
				toDelete = append(toDelete, sorted[i])
			}
		}
	}

	return toDelete
}

// getDirSize calculates the total size of a directory.
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
