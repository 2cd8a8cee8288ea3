package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type probeOptions struct {
	mail bool
	nas  bool
}

var probeOpts probeOptions

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the mail and NAS connections",
	Long: `probe exercises each configured connection read-only: capabilities,
folder listing and INBOX access for the mailbox; share root listing and base
path lookup for the NAS. Without flags it tests the mailbox and, when
configured, the NAS.`,
	RunE: runProbe,
}

func init() {
	f := probeCmd.Flags()
	f.BoolVar(&probeOpts.mail, "mail", false, "Test only the mail connection")
	f.BoolVar(&probeOpts.nas, "nas", false, "Test only the NAS connection")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	o := probeOpts

	a, err := newApp()
	if err != nil {
		return err
	}

	doMail, doNAS := o.mail, o.nas
	if !doMail && !doNAS {
		doMail = true
		doNAS = a.cfg.NAS.Configured()
	}

	var mailErr, nasErr error
	if doMail {
		mailErr = a.probeMail()
	}
	if doNAS {
		nasErr = a.validateShare()
	}

	if doMail && doNAS {
		fmt.Println("\nConnection test summary")
		fmt.Printf("  Mail: %s\n", probeStatus(mailErr))
		fmt.Printf("  NAS:  %s\n", probeStatus(nasErr))
	}

	if mailErr != nil {
		return mailErr
	}
	return nasErr
}

func probeStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "passed"
}
