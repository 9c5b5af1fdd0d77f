package chat

const helpText = "🤖 **MacroCoach Commands**\n\n" +
	"**📊 Tracking:**\n" +
	"• `/status` - Today's summary and progress\n" +
	"• `/add <data>` - Log metrics (weight, steps, food, workouts)\n\n" +
	"**🍽️ Planning:**\n" +
	"• `/plan` - Generate tomorrow's meal plan\n" +
	"• `/swap <meal_id>` - Replace a suggested meal\n\n" +
	"**👤 Profile:**\n" +
	"• `/profile` - Set up or update your profile\n\n" +
	"**💬 Natural Language:**\n" +
	"You can also ask me questions like:\n" +
	"• 'How am I doing today?'\n" +
	"• 'What should I eat tomorrow?'\n\n" +
	"**Example Data Formats:**\n" +
	"• Weight: 'weight 70.5 kg'\n" +
	"• Steps: '8500 steps'\n" +
	"• Food: '500 calories, 30g protein'\n" +
	"• Workout: 'strength workout, rpe 7'"

const guidanceText = "🤔 I'm not sure how to help with that. Here are some things you can try:\n\n" +
	"• `/status` - See your daily progress\n" +
	"• `/plan` - Get tomorrow's meal plan\n" +
	"• `/add <data>` - Log health metrics\n" +
	"• `/help` - See all commands\n\n" +
	"Or ask me things like 'How am I doing today?' or 'What should I eat tomorrow?'"

const profileNeededText = "🏃 I need your profile first! Please tell me:\n" +
	"- Age, gender, height, target weight\n" +
	"- Activity level (sedentary/lightly_active/moderately_active/very_active/extremely_active)\n" +
	"- Goal (lose_weight/maintain_weight/gain_weight/gain_muscle)\n\n" +
	"Example: `/profile age: 25, gender: male, height: 175cm, activity: moderately_active, goal: lose_weight`"

const addFormatsText = "❌ Couldn't parse your data. Try formats like:\n" +
	"• 'weight 70.5 kg'\n" +
	"• '8500 steps'\n" +
	"• '500 calories, 30g protein'\n" +
	"• 'strength workout, rpe 7'"

const profileGuideText = "👤 **Profile Setup**\n\n" +
	"Please provide your details in this format:\n" +
	"`/profile age: 25, gender: male, height: 175cm, activity: moderately_active, goal: lose_weight, target: 70kg`\n\n" +
	"**Activity levels:**\n" +
	"• sedentary\n" +
	"• lightly_active\n" +
	"• moderately_active\n" +
	"• very_active\n" +
	"• extremely_active\n\n" +
	"**Goals:**\n" +
	"• lose_weight\n" +
	"• maintain_weight\n" +
	"• gain_weight\n" +
	"• gain_muscle"
