// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package audit_test

import (
	"fmt"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/opsdash/internal/audit"
)

var tableSeq int

var _ = Describe("StoreSink", func() {
	var (
		sink  *audit.StoreSink
		table string
	)

	BeforeEach(func() {
		tableSeq++
		table = fmt.Sprintf("login_events_%d_%d", GinkgoParallelProcess(), tableSeq)
		var err error
		sink, err = audit.OpenStoreSink(env.ctx, audit.StoreConfig{
			URL:     env.connStr,
			Table:   table,
			Timeout: 5 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(sink).NotTo(BeNil())
	})

	AfterEach(func() {
		sink.Close()
		_, err := env.pool.Exec(env.ctx, "DROP TABLE IF EXISTS "+table)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("EnsureSchema", func() {
		It("creates the table and is safe to repeat", func() {
			Expect(sink.EnsureSchema(env.ctx)).To(Succeed())
			Expect(sink.EnsureSchema(env.ctx)).To(Succeed())

			again, err := audit.OpenStoreSink(env.ctx, audit.StoreConfig{URL: env.connStr, Table: table})
			Expect(err).NotTo(HaveOccurred())
			defer again.Close()
			Expect(again.EnsureSchema(env.ctx)).To(Succeed())

			Expect(env.countRows(table)).To(Equal(0))
		})
	})

	Describe("Append", func() {
		It("writes redacted login and admin events", func() {
			redactor := audit.DefaultRedactor()
			when := time.Date(2025, 10, 27, 14, 30, 0, 0, time.UTC)

			login := redactor.Redact(audit.Event{
				Username:    "viewer",
				DisplayName: "Viewer",
				Action:      audit.ActionLogin,
				Timestamp:   when,
				IsViewer:    true,
				Extras: map[string]any{
					audit.KeyStation:      "KDTW",
					audit.KeySelectedDate: "2025-10-27",
					"password":            "never-stored",
				},
			})
			override := redactor.Redact(audit.Event{
				Username:    "admin",
				DisplayName: "Admin",
				Action:      audit.ActionOverrideStation,
				Timestamp:   when.Add(time.Minute),
				Extras: map[string]any{
					audit.KeyStation:       "KGRR",
					audit.KeyOverrideValue: "41",
				},
			})

			Expect(sink.Append(env.ctx, login)).To(Succeed())
			Expect(sink.Append(env.ctx, override)).To(Succeed())
			Expect(env.countRows(table)).To(Equal(2))

			var (
				username, station string
				isViewer          bool
				selected          time.Time
				loginTime         time.Time
			)
			Expect(env.pool.QueryRow(env.ctx,
				"SELECT username, station, is_viewer, selected_date, login_time FROM "+table+" WHERE action = 'login'").
				Scan(&username, &station, &isViewer, &selected, &loginTime)).To(Succeed())
			Expect(username).To(Equal("viewer"))
			Expect(station).To(Equal("KDTW"))
			Expect(isViewer).To(BeTrue())
			Expect(selected.Format(time.DateOnly)).To(Equal("2025-10-27"))
			Expect(loginTime.Equal(when)).To(BeTrue())

			var value string
			Expect(env.pool.QueryRow(env.ctx,
				"SELECT override_value FROM "+table+" WHERE action = 'override_station'").
				Scan(&value)).To(Succeed())
			Expect(value).To(Equal("41"))
		})

		It("recreates a table dropped while running", func() {
			ev := audit.DefaultRedactor().Redact(audit.Event{
				Username:  "admin",
				Action:    audit.ActionRunIngest,
				Timestamp: time.Now().UTC(),
			})
			Expect(sink.Append(env.ctx, ev)).To(Succeed())

			_, err := env.pool.Exec(env.ctx, "DROP TABLE "+table)
			Expect(err).NotTo(HaveOccurred())

			// The first insert after the drop fails and resets the schema flag.
			Expect(sink.Append(env.ctx, ev)).NotTo(Succeed())
			Expect(sink.Append(env.ctx, ev)).To(Succeed())
			Expect(env.countRows(table)).To(Equal(1))
		})
	})

	Describe("Logger with both sinks", func() {
		It("writes the same event to the file and the table", func() {
			path := filepath.Join(GinkgoT().TempDir(), "events.jsonl")
			logger := audit.NewLogger(nil, audit.NewFileSink(path), sink)

			rep := logger.Record(env.ctx, audit.Event{
				Username:  "admin",
				Action:    audit.ActionRunBackfill,
				Timestamp: time.Now().UTC(),
			})
			Expect(rep.OK()).To(BeTrue())
			Expect(path).To(BeAnExistingFile())
			Expect(env.countRows(table)).To(Equal(1))
		})
	})
})
