package catalog

import "github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"

// Stage ids of the default fundraising pipeline, in order.
const (
	StageIdentification = "stage-identification"
	StageQualification  = "stage-qualification"
	StageCultivation    = "stage-cultivation"
	StageSolicitation   = "stage-solicitation"
	StageProcessing     = "stage-processing"
	StageStewardship    = "stage-stewardship"
)

// PipelineStages lists the default pipeline stage ids in pipeline order.
var PipelineStages = []string{
	StageIdentification,
	StageQualification,
	StageCultivation,
	StageSolicitation,
	StageProcessing,
	StageStewardship,
}

func stage(id, name, desc, icon, color string, order int) model.Artifact {
	return model.Artifact{
		ID:          id,
		Type:        model.ArtifactStage,
		Subtype:     "pipeline",
		DisplayName: name,
		Description: desc,
		Icon:        icon,
		ColorToken:  color,
		Metadata:    map[string]any{"order": order},
	}
}

func role(id, subtype, name, desc, icon string) model.Artifact {
	return model.Artifact{
		ID:          id,
		Type:        model.ArtifactRole,
		Subtype:     subtype,
		DisplayName: name,
		Description: desc,
		Icon:        icon,
		ColorToken:  "role",
	}
}

func software(id, category, name, desc, icon string) model.Artifact {
	return model.Artifact{
		ID:          id,
		Type:        model.ArtifactSoftware,
		Subtype:     "tool",
		DisplayName: name,
		Description: desc,
		Icon:        icon,
		ColorToken:  "software",
		Category:    category,
	}
}

func builtin() []model.Artifact {
	return []model.Artifact{
		stage(StageIdentification, "Identification", "Find prospective donors through research, events and referrals.", "search", "stage-sky", 1),
		stage(StageQualification, "Qualification", "Confirm capacity, affinity and interest before investing time.", "filter", "stage-indigo", 2),
		stage(StageCultivation, "Cultivation", "Build the relationship through visits, tours and updates.", "sprout", "stage-emerald", 3),
		stage(StageSolicitation, "Solicitation", "Make the ask with a tailored proposal.", "hand-coins", "stage-amber", 4),
		stage(StageProcessing, "Processing", "Record the gift, issue receipts and reconcile with finance.", "receipt", "stage-orange", 5),
		stage(StageStewardship, "Stewardship", "Thank, report impact and prepare for renewal.", "heart-handshake", "stage-rose", 6),

		role("role-executive-director", "leadership", "Executive Director", "Sets strategy and closes top-tier gifts.", "crown"),
		role("role-development-director", "leadership", "Development Director", "Owns the fundraising plan and pipeline targets.", "compass"),
		role("role-major-gifts-officer", "frontline", "Major Gifts Officer", "Manages a portfolio of major donor relationships.", "gem"),
		role("role-grant-writer", "frontline", "Grant Writer", "Prepares foundation and government proposals.", "pen-line"),
		role("role-donor-relations", "support", "Donor Relations Manager", "Runs acknowledgements and stewardship reporting.", "mail-heart"),
		role("role-gift-processor", "operations", "Gift Processor", "Enters gifts, matches payments and issues receipts.", "file-check"),
		role("role-board-member", "volunteer", "Board Member", "Opens doors and participates in asks.", "users"),
		role("role-volunteer-coordinator", "support", "Volunteer Coordinator", "Recruits and schedules event volunteers.", "calendar-heart"),

		software("software-salesforce", "CRM", "Salesforce", "Nonprofit Cloud donor and opportunity management.", "cloud"),
		software("software-raisers-edge", "CRM", "Raiser's Edge NXT", "Blackbaud donor database.", "database"),
		software("software-bloomerang", "CRM", "Bloomerang", "Donor retention focused CRM.", "boomerang"),
		software("software-mailchimp", "Marketing", "Mailchimp", "Email campaigns and appeal newsletters.", "mail"),
		software("software-constant-contact", "Marketing", "Constant Contact", "Email and event marketing.", "megaphone"),
		software("software-classy", "Online Giving", "Classy", "Donation pages and peer-to-peer campaigns.", "credit-card"),
		software("software-givebutter", "Online Giving", "Givebutter", "Low-fee online giving and events.", "wallet"),
		software("software-donorsearch", "Prospect Research", "DonorSearch", "Wealth screening and philanthropic history.", "scan-search"),
		software("software-quickbooks", "Finance", "QuickBooks", "Accounting and gift reconciliation.", "calculator"),
		software("software-slack", "Communication", "Slack", "Team coordination and gift alerts.", "message-square"),
		software("software-docusign", "", "DocuSign", "Pledge agreements and gift acceptance forms.", "signature"),
	}
}
