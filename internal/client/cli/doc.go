// Package cli provides the prayerkeeper terminal client.
//
// It wires configuration, local storage, the cloud backup and identity
// services, and an interactive REPL. Typical flow: show today's prayers,
// record them with "mark", and let automatic backups run in the
// background once enough changes accumulate.
//
// Key features:
//   - Record on-time and make-up prayers and voluntary units
//   - Effective prayer day that rolls over at dawn
//   - Statistics per week, month, year
//   - Email-link sign-in and cloud backup / restore
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// NewRootCommand exposes one-shot subcommands for scripting.
package cli
