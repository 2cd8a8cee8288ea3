package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List mail folders and their message counts",
	RunE:  runFolders,
}

func init() {
	rootCmd.AddCommand(foldersCmd)
}

func runFolders(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	sess, err := a.dialMail()
	if err != nil {
		return err
	}
	defer sess.Logout()

	folders, err := sess.ListFolders()
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	printFolders(folders)
	return nil
}
