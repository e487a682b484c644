package rules

// Default returns the built-in rule set
func Default() *RuleSet {
	return &RuleSet{
		SuspiciousKeywords: []string{
			"urgent",
			"immediately",
			"click here",
			"verify now",
			"suspended",
			"expire",
			"winner",
			"congratulations",
			"lottery",
			"prize",
			"blocked",
			"update now",
			"claim",
			"legal action",
			"overdue",
			"penalty",
			"fine",
			"arrest",
			"court",
			"send otp",
			"share pin",
			"call immediately",
			"act now",
			"limited time",
			"free gift",
			"cash prize",
		},
		LegitimateKeywords: []string{
			"debited",
			"credited",
			"available balance",
			"transaction",
			"official helpline",
			"customer care",
			"branch",
			"ifsc",
			"statement",
			"mini statement",
			"account number",
			"reference number",
			"transaction id",
		},
		Structural: StructuralPatterns{
			LegitBank: []string{
				`(?i)\b(hdfc|sbi|icici|axis|kotak|pnb|bob|canara|union|indian)\s+bank\b`,
				`(?i)\bINR\s+[\d,]+\.?\d*\b`,
				`(?i)\bavailable balance:\s*INR`,
				`(?i)\btransaction.*(?:successful|completed|processed)\b`,
				`(?i)\bofficial helpline\s+\d{4}-\d{3}-\d{4}\b`,
				`(?i)\baccount\s+XXXX\d{4}\b`,
				`(?i)\bon\s+\d{1,2}-[A-Za-z]{3}-\d{4}\s+at\s+\d{2}:\d{2}`,
			},
			MaskedAccount:    `XXXX\d{4}`,
			OfficialHelpline: `(?i)official helpline`,
			ProperDateTime:   `\d{1,2}-[A-Za-z]{3}-\d{4}\s+at\s+\d{2}:\d{2}`,
			ShortenedURL:     `(?i)bit\.ly|tinyurl|t\.co|short\.link`,
		},
		Entities: EntityPatterns{
			Phone:  `\+?[\d\s\-()]{7,}`,
			Amount: `(?i)\$\d+|\d+\s*(?:rupees?|rs\.?|dollars?|INR)`,
			Date:   `\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`,
			Email:  `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
			URL:    `https?://[^\s]+`,
		},
		Risk: RiskPatterns{
			Fear:      `(?i)arrest|jail|legal|court|penalty|fine`,
			Authority: `(?i)police|government|official|department`,
		},
		Examples: map[string][]string{
			"email": {
				"URGENT: Your account will be suspended in 24 hours. Click here to verify your identity immediately.",
				"Congratulations! You've won $50,000 in our lottery. Send your bank details to claim your prize.",
				"Your payment is overdue. Click this link to avoid legal action and additional fees.",
			},
			"sms": {
				"URGENT: Your bank account is blocked. Call +1234567890 immediately with your PIN to reactivate.",
				"You've won Rs.50,000! Send your OTP to 12345 to claim your prize money now.",
				"Your KYC is incomplete. Update now: bit.ly/fake-link or face account closure.",
			},
		},
		Recommendations: Recommendations{
			Fraud: []string{
				"Do NOT click any links or download attachments from this message",
				"Never share personal information like passwords, OTPs, or bank details",
				"Contact the organization directly through official channels to verify",
				"Report this message to your email provider or telecom operator",
				"Block the sender to prevent future messages",
			},
			Safe: []string{
				"This message appears legitimate, but always verify sender identity",
				"Be cautious with any requests for personal or financial information",
				"When in doubt, contact the sender through official channels",
				"Keep your security software updated",
			},
		},
	}
}
