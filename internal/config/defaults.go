package config

import (
	"time"

	"github.com/spf13/viper"
)

const defaultSystemInstruction = `You are Rojito, an AI assistant that specializes in sports betting tips, ` +
	`match analysis and market updates for Telegram chats. Keep answers short, concrete and friendly. ` +
	`Never promise guaranteed winnings and remind users to gamble responsibly when giving tips.`

// setDefaults registers every key so that BOT_* environment variables can
// override values that the config file leaves out.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("telegram.max_message_length", 4096)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.max_retries", 5)
	v.SetDefault("store.sqlite.path", "rojito.db")
	v.SetDefault("store.redis.url", "")
	v.SetDefault("store.redis.prefix", "rojito:")
	v.SetDefault("store.dynamodb.table", "")
	v.SetDefault("store.dynamodb.region", "us-east-1")
	v.SetDefault("store.dynamodb.endpoint", "")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.temperature", 0.5)
	v.SetDefault("ai.system_instruction", defaultSystemInstruction)
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.web_search", true)
	v.SetDefault("ai.breaker.enabled", false)
	v.SetDefault("ai.breaker.max_failures", 5)
	v.SetDefault("ai.breaker.open_timeout", time.Minute)
	v.SetDefault("ai.gemini.api_key", "")
	v.SetDefault("ai.gemini.model_name", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max_retries", 0)
	v.SetDefault("ai.gemini.retry_delay_seconds", 2)
	v.SetDefault("ai.openai.api_key", "")
	v.SetDefault("ai.openai.base_url", "")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")

	v.SetDefault("conversation.default_language", "es")

	v.SetDefault("registry.ttl", 0)

	v.SetDefault("broadcast.timeout", 3*time.Minute)

	v.SetDefault("scheduler.tasks", map[string]any{
		"broadcast":        map[string]any{"enabled": true, "schedule": "0 0 12 * * *"},
		"registry_cleanup": map[string]any{"enabled": false, "schedule": "0 30 3 * * *"},
		"sql_maintenance":  map[string]any{"enabled": true, "schedule": "0 0 4 * * 0"},
	})

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8080")

	setTexts(v, "messages.welcome", map[string]string{
		"en": "Hi! I'm Rojito, your betting tips assistant. Mention me in a group or just write to me here. Use /help to see what I can do.",
		"es": "¡Hola! Soy Rojito, tu asistente de fijas y apuestas. Menciónme en un grupo o escríbeme aquí. Usa /help para ver lo que puedo hacer.",
		"pt": "Olá! Eu sou o Rojito, seu assistente de dicas de apostas. Me mencione em um grupo ou fale comigo aqui. Use /help para ver o que posso fazer.",
		"ko": "안녕하세요! 베팅 팁 도우미 Rojito입니다. 그룹에서 저를 멘션하거나 여기로 메시지를 보내세요. /help 로 기능을 확인하세요.",
	})
	setTexts(v, "messages.help", map[string]string{
		"en": "/tips [sport] - betting tip\n/meme [topic] - meme caption\n/leaderboard - most active users\n/poll Question? a, b - create a poll\n/language en|es|pt|ko - reply language",
		"es": "/tips [deporte] - fija del día\n/meme [tema] - meme\n/leaderboard - usuarios más activos\n/poll ¿Pregunta? a, b - crear encuesta\n/language en|es|pt|ko - idioma de respuesta",
		"pt": "/tips [esporte] - dica de aposta\n/meme [tema] - meme\n/leaderboard - usuários mais ativos\n/poll Pergunta? a, b - criar enquete\n/language en|es|pt|ko - idioma das respostas",
		"ko": "/tips [종목] - 베팅 팁\n/meme [주제] - 밈 문구\n/leaderboard - 활동 순위\n/poll 질문? a, b - 투표 만들기\n/language en|es|pt|ko - 응답 언어",
	})
	setTexts(v, "messages.generation_error", map[string]string{
		"en": "There was an error generating a response. Please try again later.",
		"es": "Hubo un error al generar la respuesta. Inténtalo de nuevo más tarde.",
		"pt": "Ocorreu um erro ao gerar a resposta. Tente novamente mais tarde.",
		"ko": "응답을 생성하는 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.",
	})
	setTexts(v, "messages.leaderboard_empty", map[string]string{
		"en": "Leaderboard empty",
		"es": "Tabla vacía",
		"pt": "Ranking vazio",
		"ko": "순위표가 비어 있습니다",
	})
	setTexts(v, "messages.leaderboard_title", map[string]string{
		"en": "🏆 Leaderboard",
		"es": "🏆 Tabla de posiciones",
		"pt": "🏆 Ranking",
		"ko": "🏆 순위표",
	})
	setTexts(v, "messages.poll_usage", map[string]string{
		"en": `Invalid format. Please use "Question? Option1, Option2, Option3"`,
		"es": `Formato inválido. Usa "¿Pregunta? Opción1, Opción2, Opción3"`,
		"pt": `Formato inválido. Use "Pergunta? Opção1, Opção2, Opção3"`,
		"ko": `형식이 잘못되었습니다. "질문? 선택1, 선택2, 선택3" 형식으로 입력하세요`,
	})
	setTexts(v, "messages.poll_invalid", map[string]string{
		"en": "Invalid format. Ensure a valid question and at least two options.",
		"es": "Formato inválido. Asegúrate de incluir una pregunta válida y al menos dos opciones.",
		"pt": "Formato inválido. Inclua uma pergunta válida e pelo menos duas opções.",
		"ko": "형식이 잘못되었습니다. 올바른 질문과 두 개 이상의 선택지를 입력하세요.",
	})
	setTexts(v, "messages.language_usage", map[string]string{
		"en": "Usage: /language en|es|pt|ko",
		"es": "Uso: /language en|es|pt|ko",
		"pt": "Uso: /language en|es|pt|ko",
		"ko": "사용법: /language en|es|pt|ko",
	})
	setTexts(v, "messages.language_set", map[string]string{
		"en": "Language set to English.",
		"es": "Idioma configurado en español.",
		"pt": "Idioma definido para português.",
		"ko": "언어가 한국어로 설정되었습니다.",
	})
	setTexts(v, "messages.unauthorized", map[string]string{
		"en": "You are not authorized to use this command.",
		"es": "No tienes permiso para usar este comando.",
		"pt": "Você não tem permissão para usar este comando.",
		"ko": "이 명령을 사용할 권한이 없습니다.",
	})
	setTexts(v, "messages.broadcast_done", map[string]string{
		"en": "Broadcast delivered to %d of %d groups.",
		"es": "Actualización enviada a %d de %d grupos.",
		"pt": "Atualização enviada para %d de %d grupos.",
		"ko": "%d/%d 개 그룹에 전송했습니다.",
	})
	setTexts(v, "messages.broadcast_failed", map[string]string{
		"en": "The broadcast could not be generated. Check the logs.",
		"es": "No se pudo generar la actualización. Revisa los logs.",
		"pt": "Não foi possível gerar a atualização. Verifique os logs.",
		"ko": "업데이트를 생성하지 못했습니다. 로그를 확인하세요.",
	})
	setTexts(v, "messages.no_broadcast", map[string]string{
		"en": "No broadcast has been sent yet.",
		"es": "Todavía no se ha enviado ninguna actualización.",
		"pt": "Nenhuma atualização foi enviada ainda.",
		"ko": "아직 전송된 업데이트가 없습니다.",
	})
}

// setTexts registers one default per language so a config file overriding a
// single language keeps the others.
func setTexts(v *viper.Viper, key string, texts map[string]string) {
	for lang, text := range texts {
		v.SetDefault(key+"."+lang, text)
	}
}
