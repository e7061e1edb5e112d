package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OTPIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ems_otp_issued_total",
			Help: "One-time codes stored and handed to the mailer",
		},
		[]string{"purpose"},
	)

	OTPRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ems_otp_rejected_total",
			Help: "Code requests and verifications that were refused",
		},
		[]string{"reason"},
	)

	OTPVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ems_otp_verified_total",
			Help: "Codes verified successfully",
		},
		[]string{"purpose"},
	)

	MailFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ems_mail_failures_total",
			Help: "Outbound mails the SMTP relay refused",
		},
	)

	EmployeeIDCollisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ems_employee_id_collisions_total",
			Help: "Generated employee ids rejected by the unique constraint",
		},
		[]string{"prefix"},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ems_job_runs_total",
			Help: "Scheduled job executions by outcome",
		},
		[]string{"job", "result"},
	)

	OTPReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ems_otp_reaped_total",
			Help: "Expired one-time code records removed by the reaper",
		},
	)
)
