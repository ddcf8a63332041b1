// Package help はエディタ画面の操作ガイドを提供する。
package help

// Doc はガイドの1セクション。
type Doc struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Body    string `json:"body"`
}

// docs は表示順に並んだガイド。
var docs = []Doc{
	{
		Slug:    "getting-started",
		Title:   "Getting started",
		Summary: "Create an account and your first portfolio site.",
		Body:    "Register, then create a site with a title. The subdomain is derived from your username when the site is created and never changes afterwards.",
	},
	{
		Slug:    "hero",
		Title:   "Hero section",
		Summary: "Site title, tagline and hero image.",
		Body:    "The hero editor updates site_title, tagline and hero_image_url. Images must be https URLs or files uploaded to your site.",
	},
	{
		Slug:    "about",
		Title:   "About section",
		Summary: "Tell visitors who you are.",
		Body:    "The about text accepts basic formatting such as paragraphs, lists, links and emphasis. Scripts and embedded frames are removed when saved.",
	},
	{
		Slug:    "projects",
		Title:   "Projects",
		Summary: "Showcase your work in a custom order.",
		Body:    "Each project has a title, description, date, tags and images. New projects are added to the end of the list; change order_index to reorder them. Deleting a project also deletes its images.",
	},
	{
		Slug:    "assets",
		Title:   "Image library",
		Summary: "Upload images or reference them by URL.",
		Body:    "JPEG, PNG and GIF uploads are accepted. Images can optionally be linked to a project of the same site.",
	},
	{
		Slug:    "seo",
		Title:   "SEO settings",
		Summary: "Control how search engines show your site.",
		Body:    "Set seo_title, seo_description and seo_keywords. Leave them empty to fall back to the site title and tagline.",
	},
	{
		Slug:    "theme",
		Title:   "Theme",
		Summary: "Template, color scheme and font.",
		Body:    "Pick a template, color scheme and font family. These fields cannot be cleared; send a new value to change them.",
	},
	{
		Slug:    "publish",
		Title:   "Publishing",
		Summary: "Make your site public.",
		Body:    "Publishing records the publication time. Publishing again updates the time; the subdomain stays the same.",
	},
	{
		Slug:    "export",
		Title:   "Export",
		Summary: "Download your site as a ZIP archive.",
		Body:    "Exports are listed on the dashboard. The archive currently contains a placeholder page only.",
	},
}

// Docs はガイドを表示順で返す。戻り値は呼び出し元で変更してよい。
func Docs() []Doc {
	out := make([]Doc, len(docs))
	copy(out, docs)
	return out
}
